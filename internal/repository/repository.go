package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO finance.users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM finance.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateAccount creates a new account in the database
func (r *Repository) CreateAccount(account *models.Account) error {
	query := `
		INSERT INTO finance.accounts (user_id, name, balance, currency, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, account.UserID, account.Name, account.Balance, account.Currency, account.Active).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindAccountOwner returns the user ID owning the given account
func (r *Repository) FindAccountOwner(accountID int64) (int64, error) {
	var userID int64
	query := `SELECT user_id FROM finance.accounts WHERE id = $1`
	err := r.db.QueryRow(query, accountID).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("account not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find account: %w", err)
	}
	return userID, nil
}

// SumActiveBalances returns the sum of the user's active account balances,
// the starting point for cash-flow projection.
func (r *Repository) SumActiveBalances(userID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	query := `
		SELECT COALESCE(SUM(balance), 0)
		FROM finance.accounts
		WHERE user_id = $1 AND active = TRUE`
	if err := r.db.QueryRow(query, userID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum balances: %w", err)
	}
	return sum, nil
}

// CreateCategory creates a new category in the database
func (r *Repository) CreateCategory(c *models.Category) error {
	query := `
		INSERT INTO finance.categories (user_id, name)
		VALUES ($1, $2)
		RETURNING id`
	if err := r.db.QueryRow(query, c.UserID, c.Name).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// ListCategories returns the user's categories
func (r *Repository) ListCategories(userID int64) ([]models.Category, error) {
	query := `
		SELECT id, user_id, name
		FROM finance.categories
		WHERE user_id = $1
		ORDER BY name`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	return categories, nil
}

// CreateCard creates a new card in the database
func (r *Repository) CreateCard(card *models.Card) error {
	query := `
		INSERT INTO finance.cards (account_id, card_number, expiry_date, cvv, hmac, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, card.AccountID, card.CardNumber, card.ExpiryDate, card.CVV, card.HMAC).
		Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// FindCardOwner returns the user ID owning the account behind the card
func (r *Repository) FindCardOwner(cardID int64) (int64, error) {
	var userID int64
	query := `
		SELECT a.user_id
		FROM finance.cards c
		JOIN finance.accounts a ON a.id = c.account_id
		WHERE c.id = $1`
	err := r.db.QueryRow(query, cardID).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("card not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find card: %w", err)
	}
	return userID, nil
}

// CreateTransaction creates a new transaction in the database
func (r *Repository) CreateTransaction(tx *models.Transaction) error {
	query := `
		INSERT INTO finance.transactions
			(user_id, account_id, card_id, category_id, amount, date, description, settled, obligation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query,
		tx.UserID, tx.AccountID, tx.CardID, tx.CategoryID, tx.Amount,
		tx.Date, tx.Description, tx.Settled, tx.ObligationID).
		Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// PendingFlows returns the user's unsettled transactions dated within the
// window as (date, signed amount) pairs for the projector.
func (r *Repository) PendingFlows(userID int64, from, to time.Time) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, account_id, card_id, category_id, amount, date, description, settled, obligation_id, created_at, updated_at
		FROM finance.transactions
		WHERE user_id = $1 AND settled = FALSE AND date >= $2 AND date <= $3
		ORDER BY date`
	rows, err := r.db.Query(query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.AccountID, &tx.CardID, &tx.CategoryID, &tx.Amount,
			&tx.Date, &tx.Description, &tx.Settled, &tx.ObligationID, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return txs, nil
}

// CreateObligation creates a new recurring obligation in the database
func (r *Repository) CreateObligation(ob *models.RecurringObligation) error {
	query := `
		INSERT INTO finance.obligations
			(user_id, description, direction, category_id, account_id, card_id,
			 amount_kind, amount, average_amount, rule, anchor_day,
			 start_date, end_date, next_occurrence, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query,
		ob.UserID, ob.Description, int(ob.Direction), ob.CategoryID, ob.AccountID, ob.CardID,
		int(ob.AmountKind), ob.Amount, ob.AverageAmount, ob.Rule.ToInt(), ob.AnchorDay,
		ob.StartDate, ob.EndDate, ob.NextOccurrence, ob.Active).
		Scan(&ob.ID, &ob.CreatedAt, &ob.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create obligation: %w", err)
	}
	return nil
}

// ListActiveObligations returns the user's active obligations
func (r *Repository) ListActiveObligations(userID int64) ([]models.RecurringObligation, error) {
	query := obligationSelect + ` WHERE user_id = $1 AND active = TRUE ORDER BY id`
	return r.queryObligations(query, userID)
}

// ListDueObligations returns every active obligation, across users, whose
// cursor is on or before the given date. Used by the materializer job.
func (r *Repository) ListDueObligations(asOf time.Time) ([]models.RecurringObligation, error) {
	query := obligationSelect + ` WHERE active = TRUE AND next_occurrence <= $1 ORDER BY id`
	return r.queryObligations(query, asOf)
}

const obligationSelect = `
	SELECT id, user_id, description, direction, category_id, account_id, card_id,
	       amount_kind, amount, average_amount, rule, anchor_day,
	       start_date, end_date, next_occurrence, active, materialized_at, created_at, updated_at
	FROM finance.obligations`

func (r *Repository) queryObligations(query string, args ...interface{}) ([]models.RecurringObligation, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	defer rows.Close()

	var obs []models.RecurringObligation
	for rows.Next() {
		var ob models.RecurringObligation
		var direction, amountKind, rule int
		if err := rows.Scan(
			&ob.ID, &ob.UserID, &ob.Description, &direction, &ob.CategoryID, &ob.AccountID, &ob.CardID,
			&amountKind, &ob.Amount, &ob.AverageAmount, &rule, &ob.AnchorDay,
			&ob.StartDate, &ob.EndDate, &ob.NextOccurrence, &ob.Active, &ob.MaterializedAt,
			&ob.CreatedAt, &ob.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		ob.Direction = models.Direction(direction)
		ob.AmountKind = models.AmountKind(amountKind)
		parsed, ok := models.ToRecurrenceRule(rule)
		if !ok {
			return nil, fmt.Errorf("obligation %d has invalid recurrence rule %d", ob.ID, rule)
		}
		ob.Rule = parsed
		obs = append(obs, ob)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read obligations: %w", err)
	}
	return obs, nil
}

// AdvanceObligationCursor persists a moved cursor. The WHERE clause guards
// against a concurrent materializer having advanced the row already, so two
// runs never double-generate an occurrence.
func (r *Repository) AdvanceObligationCursor(id int64, from, to time.Time) error {
	query := `
		UPDATE finance.obligations
		SET next_occurrence = $1, materialized_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND next_occurrence = $3`
	res, err := r.db.Exec(query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to advance obligation %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to advance obligation %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("obligation %d cursor moved concurrently", id)
	}
	return nil
}

// DeactivateObligation flips the active flag without deleting the row
func (r *Repository) DeactivateObligation(id, userID int64) error {
	query := `
		UPDATE finance.obligations
		SET active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`
	res, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate obligation %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("obligation not found")
	}
	return nil
}

// CreateDebt stores a debt and its generated schedule in one transaction
func (r *Repository) CreateDebt(debt *models.Debt, lines []models.InstallmentLine) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO finance.debts
			(user_id, account_id, principal, rate_kind, rate, index_name, amortization, installments, start_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(query,
		debt.UserID, debt.AccountID, debt.Terms.Principal, int(debt.Terms.RateKind), debt.Terms.Rate,
		debt.Terms.IndexName, int(debt.Terms.Amortization), debt.Terms.Installments, debt.Terms.StartDate).
		Scan(&debt.ID, &debt.CreatedAt, &debt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create debt: %w", err)
	}

	lineQuery := `
		INSERT INTO finance.installment_lines
			(debt_id, number, due_date, total, principal, interest, remaining_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, line := range lines {
		if _, err := tx.Exec(lineQuery,
			debt.ID, line.Number, line.DueDate, line.Total, line.Principal, line.Interest, line.RemainingBalance); err != nil {
			return fmt.Errorf("failed to create installment line %d: %w", line.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit debt: %w", err)
	}
	return nil
}

// FindDebtOwner returns the user ID owning the given debt
func (r *Repository) FindDebtOwner(debtID int64) (int64, error) {
	var userID int64
	query := `SELECT user_id FROM finance.debts WHERE id = $1`
	err := r.db.QueryRow(query, debtID).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("debt not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find debt: %w", err)
	}
	return userID, nil
}

// ListSchedule returns the stored installment schedule for a debt
func (r *Repository) ListSchedule(debtID int64) ([]models.InstallmentLine, error) {
	query := `
		SELECT number, due_date, total, principal, interest, remaining_balance
		FROM finance.installment_lines
		WHERE debt_id = $1
		ORDER BY number`
	rows, err := r.db.Query(query, debtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	defer rows.Close()

	var lines []models.InstallmentLine
	for rows.Next() {
		var line models.InstallmentLine
		if err := rows.Scan(&line.Number, &line.DueDate, &line.Total, &line.Principal, &line.Interest, &line.RemainingBalance); err != nil {
			return nil, fmt.Errorf("failed to scan installment line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	return lines, nil
}

// UpcomingReminder is one row of the reminder query: an obligation occurrence
// due soon, joined with the owner's contact details.
type UpcomingReminder struct {
	Email       string
	Username    string
	Description string
	DueDate     time.Time
	Amount      decimal.Decimal
	Direction   models.Direction
}

// InstallmentReminder is one row of the installment reminder query: a debt
// installment due soon, joined with the owner's contact details.
type InstallmentReminder struct {
	Email    string
	Username string
	Number   int
	DueDate  time.Time
	Total    decimal.Decimal
}

// ListUpcomingInstallments returns debt installments falling due within the
// window, joined with user contact details.
func (r *Repository) ListUpcomingInstallments(from, to time.Time) ([]InstallmentReminder, error) {
	query := `
		SELECT u.email, u.username, l.number, l.due_date, l.total
		FROM finance.installment_lines l
		JOIN finance.debts d ON d.id = l.debt_id
		JOIN finance.users u ON u.id = d.user_id
		WHERE l.due_date >= $1 AND l.due_date <= $2
		ORDER BY l.due_date`
	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming installments: %w", err)
	}
	defer rows.Close()

	var reminders []InstallmentReminder
	for rows.Next() {
		var rem InstallmentReminder
		if err := rows.Scan(&rem.Email, &rem.Username, &rem.Number, &rem.DueDate, &rem.Total); err != nil {
			return nil, fmt.Errorf("failed to scan installment reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read installment reminders: %w", err)
	}
	return reminders, nil
}

// ListUpcomingReminders returns fixed-amount obligation occurrences falling
// due within the window, joined with user contact details.
func (r *Repository) ListUpcomingReminders(from, to time.Time) ([]UpcomingReminder, error) {
	query := `
		SELECT u.email, u.username, o.description, o.next_occurrence, o.amount, o.direction
		FROM finance.obligations o
		JOIN finance.users u ON u.id = o.user_id
		WHERE o.active = TRUE AND o.amount_kind = 0
		  AND o.next_occurrence >= $1 AND o.next_occurrence <= $2
		ORDER BY o.next_occurrence`
	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []UpcomingReminder
	for rows.Next() {
		var rem UpcomingReminder
		var direction int
		if err := rows.Scan(&rem.Email, &rem.Username, &rem.Description, &rem.DueDate, &rem.Amount, &direction); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		rem.Direction = models.Direction(direction)
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reminders: %w", err)
	}
	return reminders, nil
}
