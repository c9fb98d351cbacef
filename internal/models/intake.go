package models

import "time"

// IntakeLinkModel is a single-use onboarding credential. Only the hash of the
// token is stored.
type IntakeLinkModel struct {
	Base
	TokenHash string     `json:"-"                 gorm:"size:64;uniqueIndex;not null"`
	CreatedBy string     `json:"created_by"        gorm:"size:36;index;not null"`
	ExpiresAt time.Time  `json:"expires_at"        gorm:"index;not null"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	Note      string     `json:"note"`
}

func (IntakeLinkModel) TableName() string { return "intake_links" }

// IntakeSubmissionModel is what a partner sent through a link. LinkID is
// unique: a link is consumed by at most one submission.
type IntakeSubmissionModel struct {
	Base
	LinkID          string           `json:"link_id"                    gorm:"size:36;uniqueIndex;not null"`
	CompanyName     string           `json:"company_name"               gorm:"not null"`
	ContactName     string           `json:"contact_name"`
	ContactEmail    string           `json:"contact_email"`
	Website         string           `json:"website"`
	Message         string           `json:"message"                    gorm:"type:text"`
	Brands          RawJSON          `json:"brands"                     gorm:"type:text"`
	Status          SubmissionStatus `json:"status"                     gorm:"size:32;index;not null"`
	DecidedBy       *string          `json:"decided_by,omitempty"       gorm:"size:36"`
	DecidedAt       *time.Time       `json:"decided_at,omitempty"`
	RejectionReason *string          `json:"rejection_reason,omitempty" gorm:"type:text"`
	PartnerID       *string          `json:"partner_id,omitempty"       gorm:"size:36"`
}

func (IntakeSubmissionModel) TableName() string { return "intake_submissions" }

// BrandProposal is one entry of IntakeSubmissionModel.Brands.
type BrandProposal struct {
	Name       string   `json:"name"`
	Domains    []string `json:"domains,omitempty"`
	Licenses   []string `json:"licenses,omitempty"`
	TargetGeos []string `json:"target_geos,omitempty"`
}
