// Package occupancy answers which inventory slots are free for a geo.
package occupancy

import (
	"context"
	"sort"
	"strings"

	"github.com/dealdesk/core/internal/models"
	"gorm.io/gorm"
)

// Slot is an active position with its page, asset and occupying deals.
type Slot struct {
	Position models.PositionModel `json:"position"`
	Page     models.PageModel     `json:"page"`
	Asset    models.AssetModel    `json:"asset"`
	Deals    []models.DealModel   `json:"deals"`
}

// NormalizeGeo trims and upper-cases a geo code.
func NormalizeGeo(geo string) string {
	return strings.ToUpper(strings.TrimSpace(geo))
}

// Match returns the slots open for geo: those with no occupying deal whose
// geo equals it exactly. An empty geo returns every slot unchanged. Deals
// with a non-occupying status are ignored.
func Match(slots []Slot, geo string) []Slot {
	if geo == "" {
		return slots
	}
	out := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if !occupiedFor(slot, geo) {
			out = append(out, slot)
		}
	}
	return out
}

func occupiedFor(slot Slot, geo string) bool {
	for _, d := range slot.Deals {
		if d.Status.IsOccupying() && d.Geo == geo {
			return true
		}
	}
	return false
}

// SortSlots orders by asset name, then position name, then position id.
func SortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Asset.Name != b.Asset.Name {
			return a.Asset.Name < b.Asset.Name
		}
		if a.Position.Name != b.Position.Name {
			return a.Position.Name < b.Position.Name
		}
		return a.Position.ID < b.Position.ID
	})
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Load returns every Active position on an Active page of an Active asset,
// each with its occupying deals. Positions without a page are not inventory
// until reconciled.
func (s *Service) Load(ctx context.Context) ([]Slot, error) {
	db := s.db.WithContext(ctx)

	var positions []models.PositionModel
	err := db.Model(&models.PositionModel{}).
		Joins("JOIN pages ON pages.id = positions.page_id").
		Joins("JOIN assets ON assets.id = pages.asset_id").
		Where("positions.status = ? AND pages.status = ? AND assets.status = ?",
			models.SlotActive, models.SlotActive, models.AssetActive).
		Find(&positions).Error
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return []Slot{}, nil
	}

	positionIDs := make([]string, len(positions))
	pageIDs := make([]string, 0, len(positions))
	seenPage := map[string]bool{}
	for i, p := range positions {
		positionIDs[i] = p.ID
		if !seenPage[*p.PageID] {
			seenPage[*p.PageID] = true
			pageIDs = append(pageIDs, *p.PageID)
		}
	}

	var pages []models.PageModel
	if err := db.Where("id IN ?", pageIDs).Find(&pages).Error; err != nil {
		return nil, err
	}
	pageByID := make(map[string]models.PageModel, len(pages))
	assetIDs := make([]string, 0, len(pages))
	for _, p := range pages {
		pageByID[p.ID] = p
		assetIDs = append(assetIDs, p.AssetID)
	}

	var assets []models.AssetModel
	if err := db.Where("id IN ?", assetIDs).Find(&assets).Error; err != nil {
		return nil, err
	}
	assetByID := make(map[string]models.AssetModel, len(assets))
	for _, a := range assets {
		assetByID[a.ID] = a
	}

	var deals []models.DealModel
	if err := db.Where("position_id IN ? AND status IN ?", positionIDs, models.OccupyingDealStatuses()).
		Order("created_at ASC").Order("id ASC").
		Find(&deals).Error; err != nil {
		return nil, err
	}
	dealsByPosition := map[string][]models.DealModel{}
	for _, d := range deals {
		dealsByPosition[d.PositionID] = append(dealsByPosition[d.PositionID], d)
	}

	slots := make([]Slot, 0, len(positions))
	for _, p := range positions {
		page := pageByID[*p.PageID]
		ds := dealsByPosition[p.ID]
		if ds == nil {
			ds = []models.DealModel{}
		}
		slots = append(slots, Slot{Position: p, Page: page, Asset: assetByID[page.AssetID], Deals: ds})
	}
	SortSlots(slots)
	return slots, nil
}

// Open returns the slots free for geo, or every slot when geo is empty.
func (s *Service) Open(ctx context.Context, geo string) ([]Slot, error) {
	slots, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Match(slots, NormalizeGeo(geo)), nil
}
