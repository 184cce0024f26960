package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PurchaseStatusPending = "pending"
	PurchaseStatusPaid    = "paid"
)

// Purchase tracks a Telegram Stars invoice for CPC top-up. The invoice
// payload carries the purchase id; the payment webhook flips the status and
// credits the ledger exactly once.
type Purchase struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	AmountCPC   int64      `json:"amount_cpc"`
	AmountStars int64      `json:"amount_stars"`
	Status      string     `json:"status"`
	InvoiceLink *string    `json:"invoice_link,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
