package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendObligationReminder notifies a user about a recurring obligation
// occurrence falling due soon.
func (s *Sender) SendObligationReminder(to, username, description string, dueDate time.Time, amount decimal.Decimal, isExpense bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if isExpense {
		e.Subject = "Upcoming Payment Reminder"
	} else {
		e.Subject = "Upcoming Income Notification"
	}

	body := fmt.Sprintf("Dear %s,\n\n", username)
	if isExpense {
		body += fmt.Sprintf(
			"This is a reminder that %q of %s is due on %s.\n"+
				"Please ensure sufficient funds are available in your account.\n",
			description, amount.StringFixed(2), dueDate.Format("2006-01-02"),
		)
	} else {
		body += fmt.Sprintf(
			"%q of %s is expected on %s.\n",
			description, amount.StringFixed(2), dueDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nFinance Tracker"
	e.Text = []byte(body)

	return s.send(e, to)
}

// SendInstallmentReminder notifies a user about a debt installment due soon
func (s *Sender) SendInstallmentReminder(to, username string, number int, dueDate time.Time, total decimal.Decimal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Upcoming Installment Reminder"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Installment #%d of %s is due on %s.\n"+
			"\nBest regards,\nFinance Tracker",
		username, number, total.StringFixed(2), dueDate.Format("2006-01-02"),
	)
	e.Text = []byte(body)

	return s.send(e, to)
}

func (s *Sender) send(e *email.Email, to string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
