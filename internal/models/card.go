package models

import "time"

// Card represents a credit card usable as a funding source for
// obligations and installment purchases.
type Card struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"account_id"`
	CardNumber string    `json:"card_number"` // Decrypted for response
	ExpiryDate string    `json:"expiry_date"` // Decrypted for response
	CVV        string    `json:"-"`           // Not serialized
	HMAC       string    `json:"hmac"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
