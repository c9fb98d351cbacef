package models

import "time"

// Audit actions are read by log consumers; the strings are a wire contract.
const (
	ActionCreate             = "CREATE"
	ActionUpdate             = "UPDATE"
	ActionArchive            = "ARCHIVE"
	ActionReject             = "REJECT"
	ActionConvert            = "CONVERT"
	ActionCredentialAccess   = "CREDENTIAL_ACCESS"
	ActionCreateReplacement  = "CREATE_REPLACEMENT"
	ActionEndedByReplacement = "ENDED_BY_REPLACEMENT"
	ActionEndedByScan        = "ENDED_BY_SCAN"
	ActionCreateFromScan     = "CREATE_FROM_SCAN"
)

// Entity types recorded in the audit log.
const (
	EntityPartner    = "Partner"
	EntityBrand      = "Brand"
	EntityCredential = "Credential"
	EntityAsset      = "Asset"
	EntityPage       = "Page"
	EntityPosition   = "Position"
	EntityDeal       = "Deal"
	EntityIntakeLink = "IntakeLink"
	EntitySubmission = "IntakeSubmission"
)

const (
	// SystemActor is recorded for mutations made by maintenance procedures.
	SystemActor = "system"
	// ExternalActor is recorded for writes through a public intake link.
	ExternalActor = "external"
)

// AuditLogModel is append-only: rows are never updated or deleted.
type AuditLogModel struct {
	ID         string                 `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string                 `json:"user_id"     gorm:"size:36;index;not null"`
	EntityType string                 `json:"entity_type" gorm:"size:32;index:idx_audit_entity,priority:1;not null"`
	EntityID   string                 `json:"entity_id"   gorm:"size:36;index:idx_audit_entity,priority:2;not null"`
	Action     string                 `json:"action"      gorm:"size:32;index;not null"`
	Details    map[string]interface{} `json:"details"     gorm:"type:text;serializer:json"`
	CreatedAt  time.Time              `json:"created"     gorm:"index"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }
