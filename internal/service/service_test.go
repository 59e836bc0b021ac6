package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/Dan9191/finance-tracker/internal/utils/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:   "secret",
		SenderEmail: "noreply@finance-tracker.local",
		SMTPHost:    "localhost",
		SMTPPort:    "1025",
	}
	repo := repository.NewRepository(db)
	return NewService(repo, logger, cfg, nil, email.NewSender(cfg, logger)), mock
}

func authedContext(userID string) context.Context {
	return context.WithValue(context.Background(), "userID", userID)
}

func TestGetScheduleRejectsForeignDebt(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT user_id FROM finance.debts").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(2)))

	if _, err := svc.GetSchedule(authedContext("1"), 7); err == nil {
		t.Fatal("GetSchedule() returned another user's schedule")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetScheduleReturnsOwnDebt(t *testing.T) {
	svc, mock := newTestService(t)

	due := time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT user_id FROM finance.debts").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT number, due_date, total, principal, interest, remaining_balance").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"number", "due_date", "total", "principal", "interest", "remaining_balance"}).
			AddRow(1, due, "110.00", "100.00", "10.00", "0.00"))

	lines, err := svc.GetSchedule(authedContext("1"), 7)
	if err != nil {
		t.Fatalf("GetSchedule() failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("GetSchedule() returned %d lines, want 1", len(lines))
	}
	if !lines[0].Principal.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("line principal = %s, want 100.00", lines[0].Principal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreatePurchaseRejectsForeignCard(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT a.user_id").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(2)))

	_, err := svc.CreatePurchase(authedContext("1"), 9, 1, decimal.RequireFromString("100.00"), 3, "tv")
	if err == nil {
		t.Fatal("CreatePurchase() accepted another user's card")
	}
	// No transaction may be written for a rejected purchase.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSendRemindersCoversInstallments(t *testing.T) {
	svc, mock := newTestService(t)

	// Both the obligation and the installment reminder queries must run in
	// one pass of the daily job.
	mock.ExpectQuery("SELECT u.email, u.username, o.description").
		WillReturnRows(sqlmock.NewRows([]string{"email", "username", "description", "next_occurrence", "amount", "direction"}))
	mock.ExpectQuery("SELECT u.email, u.username, l.number").
		WillReturnRows(sqlmock.NewRows([]string{"email", "username", "number", "due_date", "total"}))

	if err := svc.SendReminders(3); err != nil {
		t.Fatalf("SendReminders() failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("installment reminder query not executed: %v", err)
	}
}

func TestCreateCategory(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("INSERT INTO finance.categories").
		WithArgs(int64(1), "Groceries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	category, err := svc.CreateCategory(authedContext("1"), "Groceries")
	if err != nil {
		t.Fatalf("CreateCategory() failed: %v", err)
	}
	if category.ID != 5 || category.UserID != 1 || category.Name != "Groceries" {
		t.Errorf("category = %+v", category)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateCategoryRejectsEmptyName(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.CreateCategory(authedContext("1"), ""); err == nil {
		t.Fatal("CreateCategory() accepted an empty name")
	}
}
