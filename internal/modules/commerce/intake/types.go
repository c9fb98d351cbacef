package intake

import (
	"time"

	"github.com/dealdesk/core/internal/models"
)

type LinkState string

const (
	LinkActive  LinkState = "Active"
	LinkUsed    LinkState = "Used"
	LinkExpired LinkState = "Expired"
)

type IssueLinkDTO struct {
	ExpiresInDays int    `json:"expires_in_days"`
	Note          string `json:"note"`
}

// IssuedLink is returned exactly once; the raw token cannot be recovered
// afterwards.
type IssuedLink struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LinkInfo is what a public caller learns about a valid link.
type LinkInfo struct {
	ExpiresAt time.Time `json:"expires_at"`
	Remaining string    `json:"remaining"`
}

// LinkView is a link as listed to operators.
type LinkView struct {
	models.IntakeLinkModel
	State LinkState `json:"state"`
}

type SubmitDTO struct {
	CompanyName  string                 `json:"company_name"  binding:"required"`
	ContactName  string                 `json:"contact_name"`
	ContactEmail string                 `json:"contact_email"`
	Website      string                 `json:"website"`
	Message      string                 `json:"message"`
	Brands       []models.BrandProposal `json:"brands"`
}

type RejectDTO struct {
	Reason string `json:"reason"`
}

// Converted is the outcome of turning a submission into a partner.
type Converted struct {
	Submission models.IntakeSubmissionModel `json:"submission"`
	Partner    models.PartnerModel          `json:"partner"`
}

// Options configures link issuance.
type Options struct {
	BaseURL       string
	DefaultExpiry time.Duration
	MaxExpiry     time.Duration
}
