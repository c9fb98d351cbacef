package notify

import (
	"context"
	"fmt"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"github.com/dealdesk/core/internal/pkg/pagination"
	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/dealdesk/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const insertBatchSize = 200

// Notice is the payload delivered to each recipient.
type Notice struct {
	Type       string
	Title      string
	Message    string
	EntityType string
	EntityID   string
}

func (n Notice) row(userID string) models.NotificationModel {
	row := models.NotificationModel{
		UserID:  userID,
		Type:    n.Type,
		Title:   n.Title,
		Message: n.Message,
	}
	if n.EntityType != "" {
		entityType := n.EntityType
		row.EntityType = &entityType
	}
	if n.EntityID != "" {
		entityID := n.EntityID
		row.EntityID = &entityID
	}
	return row
}

// Broadcaster is what mutating services depend on to announce events.
type Broadcaster interface {
	Broadcast(n Notice)
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	queue taskqueue.Dispatcher
}

func NewService(db *gorm.DB, log *zap.Logger, queue taskqueue.Dispatcher) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if queue == nil {
		queue = taskqueue.Inline{Logger: log}
	}
	return &Service{db: db, log: log.Named("Notify"), queue: queue}
}

// Broadcast queues delivery of n to every user and returns immediately.
// Recipients are read when the task runs, not when it is queued.
func (s *Service) Broadcast(n Notice) {
	accepted := s.queue.Enqueue(taskqueue.Task{
		Name: "notify.broadcast:" + n.Type,
		Fn: func(ctx context.Context) error {
			created, err := s.deliverAll(ctx, n)
			if err != nil {
				s.log.Warn("broadcast failed", zap.String("type", n.Type), zap.Error(err))
				return nil
			}
			s.log.Debug("broadcast delivered", zap.String("type", n.Type), zap.Int("recipients", created))
			return nil
		},
	})
	if !accepted {
		s.log.Warn("broadcast dropped", zap.String("type", n.Type))
	}
}

func (s *Service) deliverAll(ctx context.Context, n Notice) (int, error) {
	var userIDs []string
	if err := s.db.WithContext(ctx).Model(&models.UserModel{}).Pluck("id", &userIDs).Error; err != nil {
		return 0, fmt.Errorf("load recipients: %w", err)
	}
	if len(userIDs) == 0 {
		return 0, nil
	}
	rows := make([]models.NotificationModel, len(userIDs))
	for i, id := range userIDs {
		rows[i] = n.row(id)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}
	return len(rows), nil
}

// Notify delivers n to a single user synchronously.
func (s *Service) Notify(ctx context.Context, userID string, n Notice) error {
	row := n.row(userID)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Service) List(ctx context.Context, userID string, q pagination.Query, unreadOnly bool) ([]models.NotificationModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC")
	if unreadOnly {
		tx = tx.Where("is_read = ?", false)
	}
	var items []models.NotificationModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkRead marks one of userID's notifications read. Another user's
// notification is reported as not found.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.NotificationModel{}).
			Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("notification %s not found", id)
		}
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
