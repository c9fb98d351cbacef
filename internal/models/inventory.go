package models

import "time"

const (
	// HomepageName is the page every asset carries once reconciled.
	HomepageName = "Homepage"
	// DefaultPositionName is provisioned under every new page.
	DefaultPositionName = "N/A"
)

// AssetModel is a web property that can host inventory.
type AssetModel struct {
	Base
	Name   string      `json:"name"   gorm:"size:191;index;not null"`
	Domain string      `json:"domain" gorm:"size:191"`
	Status AssetStatus `json:"status" gorm:"size:32;index;not null"`

	Pages []PageModel `json:"pages,omitempty" gorm:"foreignKey:AssetID;constraint:OnDelete:CASCADE"`
}

func (AssetModel) TableName() string { return "assets" }

// PageModel is a named section of an asset. Names are unique per asset.
type PageModel struct {
	Base
	AssetID string     `json:"asset_id" gorm:"size:36;not null;uniqueIndex:idx_pages_asset_name,priority:1"`
	Name    string     `json:"name"     gorm:"size:191;not null;uniqueIndex:idx_pages_asset_name,priority:2"`
	Path    string     `json:"path"`
	Status  SlotStatus `json:"status"   gorm:"size:32;index;not null"`

	Positions []PositionModel `json:"positions,omitempty" gorm:"foreignKey:PageID;constraint:OnDelete:CASCADE"`
}

func (PageModel) TableName() string { return "pages" }

// PositionModel is an inventory slot. Legacy positions hang directly off an
// asset with no page; ParentKey scopes name uniqueness to whichever parent the
// position currently has.
type PositionModel struct {
	Base
	AssetID   string     `json:"asset_id"          gorm:"size:36;index;not null"`
	PageID    *string    `json:"page_id,omitempty" gorm:"size:36;index"`
	ParentKey string     `json:"-"                 gorm:"size:48;not null;uniqueIndex:idx_positions_parent_name,priority:1"`
	Name      string     `json:"name"              gorm:"size:191;not null;uniqueIndex:idx_positions_parent_name,priority:2"`
	Status    SlotStatus `json:"status"            gorm:"size:32;index;not null"`
}

func (PositionModel) TableName() string { return "positions" }

// PageParentKey and AssetParentKey build PositionModel.ParentKey.
func PageParentKey(pageID string) string   { return "page:" + pageID }
func AssetParentKey(assetID string) string { return "asset:" + assetID }

// DealModel is an occupancy of one position by a partner brand for a geo.
type DealModel struct {
	Base
	PartnerID  string     `json:"partner_id"        gorm:"size:36;index;not null"`
	BrandID    string     `json:"brand_id"          gorm:"size:36;index;not null"`
	AssetID    string     `json:"asset_id"          gorm:"size:36;index;not null"`
	PositionID string     `json:"position_id"       gorm:"size:36;index:idx_deals_position_geo,priority:1;not null"`
	PageID     *string    `json:"page_id,omitempty" gorm:"size:36;index"`
	Geo        string     `json:"geo"               gorm:"size:8;index:idx_deals_position_geo,priority:2"`
	Status     DealStatus `json:"status"            gorm:"size:32;index;not null"`
	Notes      string     `json:"notes"             gorm:"type:text"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

func (DealModel) TableName() string { return "deals" }

// ScanResultModel records an automated market scan against an asset. Scans
// are written by the external scanner and only read here.
type ScanResultModel struct {
	Base
	AssetID   string    `json:"asset_id"   gorm:"size:36;index;not null"`
	Geo       string    `json:"geo"        gorm:"size:8"`
	ScannedAt time.Time `json:"scanned_at" gorm:"index"`
	Status    string    `json:"status"     gorm:"size:32"`

	Items []ScanResultItemModel `json:"items,omitempty" gorm:"foreignKey:ScanResultID;constraint:OnDelete:CASCADE"`
}

func (ScanResultModel) TableName() string { return "scan_results" }

type ScanResultItemModel struct {
	Base
	ScanResultID   string  `json:"scan_result_id"             gorm:"size:36;index;not null"`
	URL            string  `json:"url"                        gorm:"type:text"`
	Label          string  `json:"label"`
	MatchedDealID  *string `json:"matched_deal_id,omitempty"  gorm:"size:36;index"`
	MatchedBrandID *string `json:"matched_brand_id,omitempty" gorm:"size:36;index"`
}

func (ScanResultItemModel) TableName() string { return "scan_result_items" }
