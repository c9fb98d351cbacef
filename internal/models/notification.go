package models

// Notification types.
const (
	NotifyIntakeSubmitted = "INTAKE_SUBMITTED"
	NotifyDealReplaced    = "DEAL_REPLACED"
)

// NotificationModel is one inbox entry for one user.
type NotificationModel struct {
	Base
	UserID     string  `json:"user_id"               gorm:"size:36;index:idx_notifications_user_read,priority:1;not null"`
	Type       string  `json:"type"                  gorm:"size:64;not null"`
	Title      string  `json:"title"                 gorm:"not null"`
	Message    string  `json:"message"               gorm:"type:text"`
	EntityType *string `json:"entity_type,omitempty" gorm:"size:32"`
	EntityID   *string `json:"entity_id,omitempty"   gorm:"size:36"`
	Read       bool    `json:"read"                  gorm:"column:is_read;index:idx_notifications_user_read,priority:2;default:false"`
}

func (NotificationModel) TableName() string { return "notifications" }
