// Package user is a read-only directory of operator accounts.
package user

import (
	"context"
	"strings"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) GetByID(ctx context.Context, id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		return nil, err
	}
	return &u, nil
}

// List returns every user ordered by username. search matches a substring of
// the username or display name, case-insensitively.
func (s *Service) List(ctx context.Context, search string) ([]models.UserModel, error) {
	tx := s.db.WithContext(ctx).Order("username ASC")
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		tx = tx.Where("LOWER(username) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!'", pattern, pattern)
	}
	var out []models.UserModel
	return out, tx.Find(&out).Error
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
