// Package scan exposes scan results written by the external market scanner.
package scan

import (
	"context"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"github.com/dealdesk/core/internal/pkg/pagination"
	"github.com/dealdesk/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Order("label ASC").Order("id ASC")
}

// ListForAsset returns the asset's scans newest first, each with its items.
func (s *Service) ListForAsset(ctx context.Context, assetID string, q pagination.Query) ([]models.ScanResultModel, response.Pagination, error) {
	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.AssetModel{}).Where("id = ?", assetID).Count(&n).Error; err != nil {
		return nil, response.Pagination{}, err
	}
	if n == 0 {
		return nil, response.Pagination{}, apperr.NotFound("asset %s not found", assetID)
	}

	tx := db.Model(&models.ScanResultModel{}).
		Where("asset_id = ?", assetID).
		Order("scanned_at DESC").Order("id DESC")
	var results []models.ScanResultModel
	pag, err := pagination.Paginate(tx, q, &results)
	if err != nil || len(results) == 0 {
		return results, pag, err
	}

	// Items are loaded after paging; Count does not mix with Preload.
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	var items []models.ScanResultItemModel
	if err := withItems(db.Where("scan_result_id IN ?", ids)).Find(&items).Error; err != nil {
		return nil, pag, err
	}
	byScan := make(map[string][]models.ScanResultItemModel, len(results))
	for _, it := range items {
		byScan[it.ScanResultID] = append(byScan[it.ScanResultID], it)
	}
	for i := range results {
		results[i].Items = byScan[results[i].ID]
	}
	return results, pag, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.ScanResultModel, error) {
	var out models.ScanResultModel
	err := s.db.WithContext(ctx).Preload("Items", withItems).First(&out, "id = ?", id).Error
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("scan result %s not found", id)
		}
		return nil, err
	}
	return &out, nil
}
