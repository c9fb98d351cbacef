package hierarchy

import (
	"strings"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/pkg/apperr"
)

type CreateAssetDTO struct {
	Name   string             `json:"name"   binding:"required"`
	Domain string             `json:"domain"`
	Status models.AssetStatus `json:"status"`
}

type UpdateAssetStatusDTO struct {
	Status models.AssetStatus `json:"status" binding:"required"`
}

type CreatePageDTO struct {
	Name string `json:"name" binding:"required"`
	Path string `json:"path"`
}

// CreatePositionDTO attaches to PageID, or directly to AssetID for legacy
// layouts that predate pages.
type CreatePositionDTO struct {
	PageID  string `json:"page_id"`
	AssetID string `json:"asset_id"`
	Name    string `json:"name"     binding:"required"`
}

// PositionListItem annotates a position with how many deals reference it.
type PositionListItem struct {
	models.PositionModel
	DealCount int64 `json:"deal_count"`
}

// AssetCreated is returned by CreateAsset.
type AssetCreated struct {
	Asset    models.AssetModel    `json:"asset"`
	Homepage models.PageModel     `json:"homepage"`
	Position models.PositionModel `json:"position"`
}

// PageCreated is returned by CreatePage.
type PageCreated struct {
	Page     models.PageModel     `json:"page"`
	Position models.PositionModel `json:"position"`
}

func cleanName(kind, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apperr.Validation("%s name is required", kind)
	}
	if len(trimmed) > 191 {
		return "", apperr.Validation("%s name is too long", kind)
	}
	return trimmed, nil
}
