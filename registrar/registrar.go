package registrar

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by registrar-dependent code paths when no
// client has been built because credentials are missing.
var ErrNotConfigured = errors.New("registrar: client not configured")

// Availability is the outcome of a purchasability probe. Indeterminate
// means the probe could not establish availability; callers must not
// treat it as either of the other two.
type Availability int

const (
	Indeterminate Availability = iota
	Available
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "indeterminate"
	}
}

// FailureReason classifies a vendor rejection so callers do not depend
// on raw vendor error strings.
type FailureReason string

const (
	ReasonNotAvailable     FailureReason = "not-available"
	ReasonPermissionDenied FailureReason = "permission-denied"
	ReasonMalformedRequest FailureReason = "malformed-request"
	ReasonUnknown          FailureReason = "unknown"
)

// PurchaseResult reports the outcome of an order attempt. A vendor
// rejection is a structured failure (Success=false with a Reason), not
// an error; errors are reserved for transport-level problems.
type PurchaseResult struct {
	Success   bool          `json:"success"`
	OrderID   string        `json:"order_id,omitempty"`
	Price     *float64      `json:"price,omitempty"`
	PriceText string        `json:"price_text,omitempty"`
	Reason    FailureReason `json:"reason,omitempty"`
	Message   string        `json:"message,omitempty"`
}

type Balance struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Text     string  `json:"text,omitempty"`
}

type ConnectionStatus struct {
	OK       bool   `json:"ok"`
	Identity string `json:"identity,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ExpirationInfo describes the current registration of a watched domain
// when the provider exposes it.
type ExpirationInfo struct {
	ExpiryDate           time.Time `json:"expiry_date"`
	EstimatedReleaseDate time.Time `json:"estimated_release_date"`
	DaysUntilExpiry      int       `json:"days_until_expiry"`
	Registrar            string    `json:"registrar,omitempty"`
}

// Client is the capability interface over a registrar's ordering API.
type Client interface {
	// CheckAvailability runs a reversible probe against the ordering
	// system. Any probe resource it creates is released on all exit
	// paths. A non-nil error always pairs with Indeterminate.
	CheckAvailability(ctx context.Context, domain string) (Availability, error)

	// Purchase re-verifies availability and then places an order for
	// the domain. Vendor rejections come back as a failed
	// PurchaseResult with a classified Reason.
	Purchase(ctx context.Context, domain string) (PurchaseResult, error)

	// AccountBalance is best-effort; it returns an error instead of a
	// balance when the provider denies the query.
	AccountBalance(ctx context.Context) (*Balance, error)

	// TestConnection verifies the credentials with a single identity
	// lookup round trip.
	TestConnection(ctx context.Context) ConnectionStatus

	// ExpirationInfo returns registration metadata for a domain, or
	// nil when the provider has none for it.
	ExpirationInfo(ctx context.Context, domain string) (*ExpirationInfo, error)
}
