package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/handler"
	"github.com/Dan9191/finance-tracker/internal/integrations/rateindex"
	"github.com/Dan9191/finance-tracker/internal/middleware"
	"github.com/Dan9191/finance-tracker/internal/repository"
	"github.com/Dan9191/finance-tracker/internal/service"
	"github.com/Dan9191/finance-tracker/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const reminderWindowDays = 3

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	rates := rateindex.NewClient(cfg, logger)
	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, cfg, rates, mailer)
	h := handler.NewHandler(svc)

	// Daily job: materialize due obligation occurrences and remind users
	// about upcoming payments.
	c := cron.New()
	_, err = c.AddFunc("0 6 * * *", func() {
		if err := svc.MaterializeDue(time.Now()); err != nil {
			logger.Errorf("Materializer run failed: %v", err)
		}
		if err := svc.SendReminders(reminderWindowDays); err != nil {
			logger.Errorf("Reminder run failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("Failed to schedule daily job: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	authRouter.HandleFunc("/cards", h.CreateCard).Methods("POST")
	authRouter.HandleFunc("/categories", h.CreateCategory).Methods("POST")
	authRouter.HandleFunc("/categories", h.ListCategories).Methods("GET")
	authRouter.HandleFunc("/obligations", h.CreateObligation).Methods("POST")
	authRouter.HandleFunc("/obligations", h.ListObligations).Methods("GET")
	authRouter.HandleFunc("/obligations/{id}", h.DeactivateObligation).Methods("DELETE")
	authRouter.HandleFunc("/debts", h.CreateDebt).Methods("POST")
	authRouter.HandleFunc("/debts/{id}/schedule", h.GetSchedule).Methods("GET")
	authRouter.HandleFunc("/purchases", h.CreatePurchase).Methods("POST")
	authRouter.HandleFunc("/forecast", h.Forecast).Methods("GET")
	// Rate index endpoint
	r.HandleFunc("/index-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := rates.Resolve(rateindex.KeyRateIndex)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to resolve rate index: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"index": rateindex.KeyRateIndex, "rate": rate.String()})
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
