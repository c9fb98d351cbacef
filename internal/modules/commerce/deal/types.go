package deal

import "github.com/dealdesk/core/internal/models"

type CreateDealDTO struct {
	PartnerID  string            `json:"partner_id"  binding:"required"`
	BrandID    string            `json:"brand_id"    binding:"required"`
	AssetID    string            `json:"asset_id"    binding:"required"`
	PositionID string            `json:"position_id" binding:"required"`
	Geo        string            `json:"geo"         binding:"required"`
	Status     models.DealStatus `json:"status"`
	Notes      string            `json:"notes"`
}

type UpdateStatusDTO struct {
	Status models.DealStatus `json:"status" binding:"required"`
}

// Created is returned by Create. Conflicting lists other deals already
// occupying the same position and geo; creation is not blocked by them.
type Created struct {
	Deal        models.DealModel `json:"deal"`
	Conflicting []string         `json:"conflicting"`
}

// Replaced is returned by Replace. Ended lists the deals moved to Inactive.
type Replaced struct {
	Deal  models.DealModel `json:"deal"`
	Ended []string         `json:"ended"`
}

// PipelineCounts groups deal counts by status. Statuses outside the known
// set are reported under Unknown and excluded from Pipeline and Live.
type PipelineCounts struct {
	ByStatus map[models.DealStatus]int64 `json:"by_status"`
	Pipeline int64                       `json:"pipeline"`
	Live     int64                       `json:"live"`
	Unknown  map[string]int64            `json:"unknown,omitempty"`
}

type ListFilter struct {
	PartnerID  string
	BrandID    string
	AssetID    string
	PositionID string
	Geo        string
	Status     models.DealStatus
}
