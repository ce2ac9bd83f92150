package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a transaction. The set is open: historical
// rows may carry values outside the known constants and pass through as-is.
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypePayment    TransactionType = "PAYMENT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
)

// TransactionStatus is the review status of a transaction. Historical
// values such as PENDING or COMPLETED may appear and must render without
// error; they are normalized (uppercased) only at display time.
type TransactionStatus string

const (
	StatusLegitimate TransactionStatus = "LEGITIMATE"
	StatusFlagged    TransactionStatus = "FLAGGED"
	StatusBlocked    TransactionStatus = "BLOCKED"
)

// Normalize uppercases a status for display. Unrecognized values are
// preserved, not rejected.
func (s TransactionStatus) Normalize() TransactionStatus {
	return TransactionStatus(strings.ToUpper(strings.TrimSpace(string(s))))
}

// Severity is the fraud-probability tier derived for display.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// SeverityFor derives the severity tier from a fraud probability.
// A nil probability is treated as low.
func SeverityFor(prob *float64) Severity {
	if prob == nil {
		return SeverityLow
	}
	switch {
	case *prob >= 0.7:
		return SeverityHigh
	case *prob >= 0.4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Transaction is the authoritative transaction record. The service reads
// fraud_probability as pre-computed by the upstream scoring pipeline; it
// never computes scores itself.
type Transaction struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	Initiator        string            `json:"initiator" db:"initiator"`
	Recipient        string            `json:"recipient" db:"recipient"`
	Amount           decimal.Decimal   `json:"amount" db:"amount"`
	Type             TransactionType   `json:"transaction_type" db:"transaction_type"`
	Status           TransactionStatus `json:"status" db:"status"`
	FraudProbability *float64          `json:"fraud_probability,omitempty" db:"fraud_probability"`
	Description      *string           `json:"description,omitempty" db:"description"`
	Location         *string           `json:"location,omitempty" db:"location"`
	TransactionTime  time.Time         `json:"transaction_time" db:"transaction_time"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
}

// ShortID returns the shortened identifier used in the grid.
func (t *Transaction) ShortID() string {
	id := t.ID.String()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// DisplayDescription returns the stored description, or derives one from
// the transaction fields when none is stored.
func (t *Transaction) DisplayDescription() string {
	if t.Description != nil && *t.Description != "" {
		return *t.Description
	}
	return fmt.Sprintf("%s of %s from %s to %s",
		t.Type, t.Amount.StringFixed(2), t.Initiator, t.Recipient)
}

// DisplayTransaction is a Transaction formatted for the review grid.
type DisplayTransaction struct {
	ID               uuid.UUID         `json:"id"`
	ShortID          string            `json:"short_id"`
	Initiator        string            `json:"initiator"`
	Recipient        string            `json:"recipient"`
	Amount           decimal.Decimal   `json:"amount"`
	Type             TransactionType   `json:"transaction_type"`
	Status           TransactionStatus `json:"status"`
	Severity         Severity          `json:"severity"`
	FraudProbability *float64          `json:"fraud_probability,omitempty"`
	Description      string            `json:"description"`
	Location         string            `json:"location,omitempty"`
	TransactionTime  string            `json:"transaction_time"`
}

// ForDisplay formats a transaction for presentation.
func (t *Transaction) ForDisplay() DisplayTransaction {
	location := ""
	if t.Location != nil {
		location = *t.Location
	}
	return DisplayTransaction{
		ID:               t.ID,
		ShortID:          t.ShortID(),
		Initiator:        t.Initiator,
		Recipient:        t.Recipient,
		Amount:           t.Amount,
		Type:             t.Type,
		Status:           t.Status.Normalize(),
		Severity:         SeverityFor(t.FraudProbability),
		FraudProbability: t.FraudProbability,
		Description:      t.DisplayDescription(),
		Location:         location,
		TransactionTime:  t.TransactionTime.Format("Jan 02, 2006 15:04"),
	}
}

// TransactionReview is an append-only audit record of a review decision.
// Rows are created exactly once per save and never mutated or deleted.
type TransactionReview struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	TransactionID  uuid.UUID         `json:"transaction_id" db:"transaction_id"`
	ReviewedBy     uuid.UUID         `json:"reviewed_by_user_id" db:"reviewed_by_user_id"`
	PreviousStatus TransactionStatus `json:"previous_status" db:"previous_status"`
	NewStatus      TransactionStatus `json:"new_status" db:"new_status"`
	Notes          string            `json:"notes" db:"notes"`
	ReviewedAt     time.Time         `json:"reviewed_at" db:"reviewed_at"`
}

// ReviewEdit is a client-local pending edit for one transaction. It lives
// only between the first edit on a row and a successful save or discard.
type ReviewEdit struct {
	NewStatus      TransactionStatus `json:"new_status"`
	PreviousStatus TransactionStatus `json:"previous_status"`
	Notes          string            `json:"notes"`
}
