package audit

import (
	"context"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/pkg/clock"
	"github.com/dealdesk/core/internal/pkg/pagination"
	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Auditor is what mutating services need from the audit log.
type Auditor interface {
	Record(ctx context.Context, userID, entityType, entityID, action string, details map[string]interface{})
}

// Recorder appends audit rows. It is called after the primary mutation has
// committed, so a failed write is logged and dropped rather than returned.
type Recorder struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewRecorder(db *gorm.DB, log *zap.Logger, clk clock.Clock) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Recorder{db: db, log: log.Named("Audit"), clock: clk}
}

// Record appends one row for a mutation performed by userID.
func (r *Recorder) Record(ctx context.Context, userID, entityType, entityID, action string, details map[string]interface{}) {
	row := models.AuditLogModel{
		ID:         uuid.New().String(),
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		CreatedAt:  r.clock.Now(),
	}
	if err := r.db.WithContext(context.WithoutCancel(ctx)).Create(&row).Error; err != nil {
		r.log.Warn("audit write failed",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.String("action", action),
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	EntityType string
	EntityID   string
	Action     string
	UserID     string
}

func (r *Recorder) List(ctx context.Context, q pagination.Query, f Filter) ([]models.AuditLogModel, response.Pagination, error) {
	tx := r.db.WithContext(ctx).Model(&models.AuditLogModel{}).Order("created_at DESC").Order("id DESC")
	if f.EntityType != "" {
		tx = tx.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		tx = tx.Where("entity_id = ?", f.EntityID)
	}
	if f.Action != "" {
		tx = tx.Where("action = ?", f.Action)
	}
	if f.UserID != "" {
		tx = tx.Where("user_id = ?", f.UserID)
	}
	var items []models.AuditLogModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}
