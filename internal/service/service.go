package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/engine"
	"github.com/Dan9191/finance-tracker/internal/integrations/rateindex"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/Dan9191/finance-tracker/internal/utils"
	"github.com/Dan9191/finance-tracker/internal/utils/email"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	log    *logrus.Logger
	config *config.Config
	rates  *rateindex.Client
	mailer *email.Sender
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config, rates *rateindex.Client, mailer *email.Sender) *Service {
	return &Service{repo: repo, log: log, config: cfg, rates: rates, mailer: mailer}
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

func userIDFromContext(ctx context.Context) (int64, error) {
	userIDStr, ok := ctx.Value("userID").(string)
	if !ok || userIDStr == "" {
		return 0, fmt.Errorf("user ID not found in context")
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID: %w", err)
	}
	return userID, nil
}

// CreateAccount creates a new account for the authenticated user
func (s *Service) CreateAccount(ctx context.Context, name, currency string) (*models.Account, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		UserID:   userID,
		Name:     name,
		Balance:  decimal.Zero,
		Currency: currency,
		Active:   true,
	}

	if err := s.repo.CreateAccount(account); err != nil {
		return nil, err
	}

	s.log.Infof("Account created for user %d: %s", userID, account.Currency)
	return account, nil
}

// CreateCard creates a new card for the specified account
func (s *Service) CreateCard(ctx context.Context, accountID int64) (*models.Card, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	// Verify account belongs to user
	accountUserID, err := s.repo.FindAccountOwner(accountID)
	if err != nil {
		return nil, err
	}
	if accountUserID != userID {
		return nil, fmt.Errorf("account does not belong to user")
	}

	cardNumber, err := utils.GenerateCardNumber("400000", 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate card number: %w", err)
	}
	expiryDate := utils.GenerateExpiryDate()
	cvv := utils.GenerateCVV()

	encryptedCardNumber, err := utils.Encrypt(cardNumber, []byte(s.config.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}
	encryptedExpiryDate, err := utils.Encrypt(expiryDate, []byte(s.config.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt expiry date: %w", err)
	}

	cvvHash, err := bcrypt.GenerateFromPassword([]byte(cvv), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash CVV: %w", err)
	}

	hmac := utils.GenerateHMAC(cardNumber, expiryDate, cvv, s.config.HMACSecret)

	card := &models.Card{
		AccountID:  accountID,
		CardNumber: encryptedCardNumber,
		ExpiryDate: encryptedExpiryDate,
		CVV:        string(cvvHash),
		HMAC:       hmac,
	}

	if err := s.repo.CreateCard(card); err != nil {
		return nil, err
	}

	// Return card with decrypted fields for response
	card.CardNumber = cardNumber
	card.ExpiryDate = expiryDate
	s.log.Infof("Card created for account %d", accountID)
	return card, nil
}

// CreateCategory creates a new category for the authenticated user
func (s *Service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("category name must not be empty")
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
	}
	if err := s.repo.CreateCategory(category); err != nil {
		return nil, err
	}

	s.log.Infof("Category %d created for user %d: %s", category.ID, userID, name)
	return category, nil
}

// ListCategories returns the authenticated user's categories
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListCategories(userID)
}

// CreateObligation validates and stores a new recurring obligation. The
// cursor starts at the start date; the engine advances it from there.
func (s *Service) CreateObligation(ctx context.Context, ob models.RecurringObligation) (*models.RecurringObligation, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if (ob.AccountID == nil) == (ob.CardID == nil) {
		return nil, fmt.Errorf("exactly one funding source must be set")
	}
	if ob.AmountKind == models.FixedAmount && !ob.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}
	if ob.AnchorDay != nil && (*ob.AnchorDay < 1 || *ob.AnchorDay > 31) {
		return nil, fmt.Errorf("anchor day must be between 1 and 31")
	}
	if ob.EndDate != nil && ob.EndDate.Before(ob.StartDate) {
		return nil, fmt.Errorf("end date must not precede start date")
	}

	ob.UserID = userID
	ob.NextOccurrence = ob.StartDate
	ob.Active = true

	if err := s.repo.CreateObligation(&ob); err != nil {
		return nil, err
	}

	s.log.Infof("Obligation %d created for user %d: %s %s", ob.ID, userID, ob.Rule, ob.Description)
	return &ob, nil
}

// ListObligations returns the authenticated user's active obligations
func (s *Service) ListObligations(ctx context.Context) ([]models.RecurringObligation, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListActiveObligations(userID)
}

// DeactivateObligation flips the active flag; obligations are never deleted
func (s *Service) DeactivateObligation(ctx context.Context, id int64) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.DeactivateObligation(id, userID); err != nil {
		return err
	}
	s.log.Infof("Obligation %d deactivated by user %d", id, userID)
	return nil
}

// MaterializeDue walks every active obligation whose cursor has reached asOf,
// emits one real transaction per due occurrence and persists the advanced
// cursor. Each cursor update is guarded so concurrent runs never
// double-generate an occurrence.
func (s *Service) MaterializeDue(asOf time.Time) error {
	due, err := s.repo.ListDueObligations(asOf)
	if err != nil {
		return err
	}

	for _, ob := range due {
		if err := s.materializeObligation(ob, asOf); err != nil {
			// One bad obligation must not stall the rest of the run.
			s.log.Errorf("Failed to materialize obligation %d: %v", ob.ID, err)
		}
	}
	return nil
}

func (s *Service) materializeObligation(ob models.RecurringObligation, asOf time.Time) error {
	for !ob.NextOccurrence.After(asOf) {
		if ob.AmountKind == models.FixedAmount {
			amount := ob.Amount
			if ob.Direction == models.Expense {
				amount = amount.Neg()
			}
			obligationID := ob.ID
			tx := &models.Transaction{
				UserID:       ob.UserID,
				AccountID:    ob.AccountID,
				CardID:       ob.CardID,
				CategoryID:   ob.CategoryID,
				Amount:       amount,
				Date:         ob.NextOccurrence,
				Description:  ob.Description,
				Settled:      true,
				ObligationID: &obligationID,
			}
			if err := s.repo.CreateTransaction(tx); err != nil {
				return err
			}
		} else {
			// Variable obligations have no materializable amount; the user
			// records the actual transaction and only the cursor moves.
			s.log.Infof("Obligation %d (variable) due on %s, advancing cursor only",
				ob.ID, ob.NextOccurrence.Format("2006-01-02"))
		}

		advanced, ok := engine.Advance(ob)
		if !ok {
			s.log.Infof("Obligation %d exhausted its end date, deactivating", ob.ID)
			return s.repo.DeactivateObligation(ob.ID, ob.UserID)
		}
		if err := s.repo.AdvanceObligationCursor(ob.ID, ob.NextOccurrence, advanced.NextOccurrence); err != nil {
			return err
		}
		ob = advanced
	}
	return nil
}

// CreateDebt resolves the debt's rate if it references an external index,
// generates the installment schedule and stores both.
func (s *Service) CreateDebt(ctx context.Context, accountID int64, terms models.DebtTerms) (*models.Debt, []models.InstallmentLine, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	accountUserID, err := s.repo.FindAccountOwner(accountID)
	if err != nil {
		return nil, nil, err
	}
	if accountUserID != userID {
		return nil, nil, fmt.Errorf("account does not belong to user")
	}

	if terms.Installments < 1 {
		return nil, nil, fmt.Errorf("installment count must be >= 1")
	}
	if !terms.Principal.IsPositive() {
		return nil, nil, fmt.Errorf("principal must be positive")
	}
	if terms.Rate.IsNegative() {
		return nil, nil, fmt.Errorf("rate must not be negative")
	}

	if terms.RateKind == models.VariableRate {
		annual, err := s.rates.Resolve(terms.IndexName)
		if err != nil {
			// Unresolved index degrades to a zero rate for the schedule.
			s.log.Warnf("Failed to resolve rate index %q, generating zero-rate schedule: %v", terms.IndexName, err)
		} else {
			terms.RateKind = models.FixedRate
			terms.Rate = annual.Div(decimal.NewFromInt(12)).Round(6)
		}
	}

	lines := engine.GenerateSchedule(terms)

	debt := &models.Debt{
		UserID:    userID,
		AccountID: accountID,
		Terms:     terms,
	}
	if err := s.repo.CreateDebt(debt, lines); err != nil {
		return nil, nil, err
	}

	s.log.Infof("Debt %d created for user %d: %s over %d installments (%s)",
		debt.ID, userID, terms.Principal.StringFixed(2), terms.Installments, terms.Amortization)
	return debt, lines, nil
}

// GetSchedule returns the stored installment schedule for one of the
// authenticated user's own debts.
func (s *Service) GetSchedule(ctx context.Context, debtID int64) ([]models.InstallmentLine, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	debtUserID, err := s.repo.FindDebtOwner(debtID)
	if err != nil {
		return nil, err
	}
	if debtUserID != userID {
		return nil, fmt.Errorf("debt does not belong to user")
	}
	return s.repo.ListSchedule(debtID)
}

// CreatePurchase splits a lump purchase over count months of card
// installments. The split is exact: the sub-cent remainder lands in the
// first installment.
func (s *Service) CreatePurchase(ctx context.Context, cardID, categoryID int64, total decimal.Decimal, count int, description string) ([]models.Transaction, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("purchase total must be positive")
	}
	if count < 1 {
		return nil, fmt.Errorf("installment count must be >= 1")
	}

	// Verify card belongs to user
	cardUserID, err := s.repo.FindCardOwner(cardID)
	if err != nil {
		return nil, err
	}
	if cardUserID != userID {
		return nil, fmt.Errorf("card does not belong to user")
	}

	today := time.Now()
	parts := engine.Split(total, count)
	txs := make([]models.Transaction, 0, len(parts))
	for _, part := range parts {
		card := cardID
		tx := models.Transaction{
			UserID:      userID,
			CardID:      &card,
			CategoryID:  categoryID,
			Amount:      part.Amount.Neg(),
			Date:        engine.AddMonths(today, part.MonthOffset),
			Description: fmt.Sprintf("%s (%d/%d)", description, part.MonthOffset+1, count),
			Settled:     false,
		}
		if err := s.repo.CreateTransaction(&tx); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	s.log.Infof("Purchase of %s split into %d installments for user %d", total.StringFixed(2), count, userID)
	return txs, nil
}

// Forecast projects the user's balance over the horizon by combining active
// account balances, pending one-off transactions and simulated recurring
// obligations.
func (s *Service) Forecast(ctx context.Context, horizonDays int) (models.CashFlowSeries, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if horizonDays < 0 {
		return nil, fmt.Errorf("horizon must be >= 0")
	}

	balance, err := s.repo.SumActiveBalances(userID)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	txs, err := s.repo.PendingFlows(userID, today, today.AddDate(0, 0, horizonDays))
	if err != nil {
		return nil, err
	}
	pending := make([]engine.PendingFlow, 0, len(txs))
	for _, tx := range txs {
		pending = append(pending, engine.PendingFlow{Date: tx.Date, Amount: tx.Amount})
	}

	obligations, err := s.repo.ListActiveObligations(userID)
	if err != nil {
		return nil, err
	}

	series := engine.Project(today, balance, pending, obligations, horizonDays)
	s.log.Debugf("Forecast for user %d: %d points over %d days", userID, len(series), horizonDays)
	return series, nil
}

// SendReminders emails users about fixed obligations and debt installments
// falling due within the given number of days. Called from the daily job.
func (s *Service) SendReminders(withinDays int) error {
	now := time.Now()
	until := now.AddDate(0, 0, withinDays)

	reminders, err := s.repo.ListUpcomingReminders(now, until)
	if err != nil {
		return err
	}
	for _, rem := range reminders {
		err := s.mailer.SendObligationReminder(
			rem.Email, rem.Username, rem.Description, rem.DueDate, rem.Amount, rem.Direction == models.Expense)
		if err != nil {
			s.log.Errorf("Failed to send reminder to %s: %v", rem.Email, err)
		}
	}

	installments, err := s.repo.ListUpcomingInstallments(now, until)
	if err != nil {
		return err
	}
	for _, rem := range installments {
		err := s.mailer.SendInstallmentReminder(rem.Email, rem.Username, rem.Number, rem.DueDate, rem.Total)
		if err != nil {
			s.log.Errorf("Failed to send installment reminder to %s: %v", rem.Email, err)
		}
	}
	return nil
}
