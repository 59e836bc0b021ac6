package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	user, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), req.Name, req.Currency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// CreateCard handles card creation
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID int64 `json:"account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	card, err := h.svc.CreateCard(r.Context(), req.AccountID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// CreateCategory handles category creation
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	category, err := h.svc.CreateCategory(r.Context(), req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// ListCategories returns the user's categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type obligationRequest struct {
	Description   string  `json:"description"`
	Direction     string  `json:"direction"`
	CategoryID    int64   `json:"category_id"`
	AccountID     *int64  `json:"account_id"`
	CardID        *int64  `json:"card_id"`
	AmountKind    string  `json:"amount_kind"`
	Amount        string  `json:"amount"`
	AverageAmount string  `json:"average_amount"`
	Rule          string  `json:"rule"`
	AnchorDay     *int    `json:"anchor_day"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date"`
}

// CreateObligation handles creation of a recurring obligation
func (h *Handler) CreateObligation(w http.ResponseWriter, r *http.Request) {
	var req obligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ob, err := req.toModel()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.svc.CreateObligation(r.Context(), ob)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (req obligationRequest) toModel() (models.RecurringObligation, error) {
	var ob models.RecurringObligation

	direction, err := parseDirection(req.Direction)
	if err != nil {
		return ob, err
	}
	rule, err := parseRule(req.Rule)
	if err != nil {
		return ob, err
	}
	amountKind := models.FixedAmount
	if req.AmountKind == "variable" {
		amountKind = models.VariableAmount
	}

	amount := decimal.Zero
	if req.Amount != "" {
		if amount, err = decimal.NewFromString(req.Amount); err != nil {
			return ob, errBadField("amount")
		}
	}
	average := decimal.Zero
	if req.AverageAmount != "" {
		if average, err = decimal.NewFromString(req.AverageAmount); err != nil {
			return ob, errBadField("average_amount")
		}
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return ob, errBadField("start_date")
	}
	var end *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return ob, errBadField("end_date")
		}
		end = &parsed
	}

	return models.RecurringObligation{
		Description:   req.Description,
		Direction:     direction,
		CategoryID:    req.CategoryID,
		AccountID:     req.AccountID,
		CardID:        req.CardID,
		AmountKind:    amountKind,
		Amount:        amount,
		AverageAmount: average,
		Rule:          rule,
		AnchorDay:     req.AnchorDay,
		StartDate:     start,
		EndDate:       end,
	}, nil
}

// ListObligations returns the user's active obligations
func (h *Handler) ListObligations(w http.ResponseWriter, r *http.Request) {
	obs, err := h.svc.ListObligations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

// DeactivateObligation flips an obligation's active flag
func (h *Handler) DeactivateObligation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid obligation id", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeactivateObligation(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateDebt generates and stores a debt's installment schedule
func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID    int64  `json:"account_id"`
		Principal    string `json:"principal"`
		RateKind     string `json:"rate_kind"`
		Rate         string `json:"rate"`
		IndexName    string `json:"index_name"`
		Amortization string `json:"amortization"`
		Installments int    `json:"installments"`
		StartDate    string `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		http.Error(w, "invalid field: principal", http.StatusBadRequest)
		return
	}
	rate := decimal.Zero
	if req.Rate != "" {
		if rate, err = decimal.NewFromString(req.Rate); err != nil {
			http.Error(w, "invalid field: rate", http.StatusBadRequest)
			return
		}
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		http.Error(w, "invalid field: start_date", http.StatusBadRequest)
		return
	}
	kind, err := parseAmortization(req.Amortization)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rateKind := models.FixedRate
	if req.RateKind == "variable" {
		rateKind = models.VariableRate
	}

	terms := models.DebtTerms{
		Principal:    principal,
		RateKind:     rateKind,
		Rate:         rate,
		IndexName:    req.IndexName,
		Amortization: kind,
		Installments: req.Installments,
		StartDate:    start,
	}

	debt, lines, err := h.svc.CreateDebt(r.Context(), req.AccountID, terms)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"debt":     debt,
		"schedule": lines,
	})
}

// GetSchedule returns a debt's stored installment schedule
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	debtID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid debt id", http.StatusBadRequest)
		return
	}
	lines, err := h.svc.GetSchedule(r.Context(), debtID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// CreatePurchase splits a purchase into monthly card installments
func (h *Handler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CardID       int64  `json:"card_id"`
		CategoryID   int64  `json:"category_id"`
		Total        string `json:"total"`
		Installments int    `json:"installments"`
		Description  string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	total, err := decimal.NewFromString(req.Total)
	if err != nil {
		http.Error(w, "invalid field: total", http.StatusBadRequest)
		return
	}

	txs, err := h.svc.CreatePurchase(r.Context(), req.CardID, req.CategoryID, total, req.Installments, req.Description)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, txs)
}

// Forecast projects the user's balance over the requested horizon
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	horizonDays := 90
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid days parameter", http.StatusBadRequest)
			return
		}
		horizonDays = parsed
	}

	series, err := h.svc.Forecast(r.Context(), horizonDays)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

type fieldError string

func (e fieldError) Error() string { return "invalid field: " + string(e) }

func errBadField(name string) error { return fieldError(name) }

func parseDirection(s string) (models.Direction, error) {
	switch s {
	case "income":
		return models.Income, nil
	case "expense":
		return models.Expense, nil
	default:
		return 0, errBadField("direction")
	}
}

func parseRule(s string) (models.RecurrenceRule, error) {
	for rule := models.RecurrenceRule(0); rule < models.RecurrenceRuleCount; rule++ {
		if rule.String() == s {
			return rule, nil
		}
	}
	return 0, errBadField("rule")
}

func parseAmortization(s string) (models.AmortizationKind, error) {
	switch s {
	case "price":
		return models.Price, nil
	case "sac":
		return models.SAC, nil
	case "bullet":
		return models.Bullet, nil
	case "custom":
		return models.Custom, nil
	default:
		return 0, errBadField("amortization")
	}
}
