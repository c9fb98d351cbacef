package hierarchy

import (
	"context"
	"fmt"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	audit audit.Auditor
}

func NewService(db *gorm.DB, log *zap.Logger, auditor audit.Auditor) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log.Named("Hierarchy"), audit: auditor}
}

func (s *Service) record(ctx context.Context, actor, entityType, entityID, action string, details map[string]interface{}) {
	if s.audit != nil {
		s.audit.Record(ctx, actor, entityType, entityID, action, details)
	}
}

// CreateAsset creates an asset together with its Homepage and that page's
// default position.
func (s *Service) CreateAsset(ctx context.Context, actor string, dto CreateAssetDTO) (*AssetCreated, error) {
	name, err := cleanName("asset", dto.Name)
	if err != nil {
		return nil, err
	}
	status := dto.Status
	if status == "" {
		status = models.AssetActive
	}
	if !status.Valid() {
		return nil, apperr.Validation("unknown asset status %q", status)
	}

	out := AssetCreated{Asset: models.AssetModel{Name: name, Domain: dto.Domain, Status: status}}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&out.Asset).Error; err != nil {
			return err
		}
		page, pos, err := createPageWithDefault(tx, out.Asset.ID, models.HomepageName, "/")
		if err != nil {
			return err
		}
		out.Homepage, out.Position = page, pos
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.EntityAsset, out.Asset.ID, models.ActionCreate, map[string]interface{}{"name": name})
	return &out, nil
}

func (s *Service) GetAsset(ctx context.Context, id string) (*models.AssetModel, error) {
	var a models.AssetModel
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("asset %s not found", id)
		}
		return nil, err
	}
	return &a, nil
}

func (s *Service) ListAssets(ctx context.Context, includeArchived bool) ([]models.AssetModel, error) {
	tx := s.db.WithContext(ctx).Order("name ASC").Order("id ASC")
	if !includeArchived {
		tx = tx.Where("status <> ?", models.AssetArchived)
	}
	var items []models.AssetModel
	return items, tx.Find(&items).Error
}

func (s *Service) UpdateAssetStatus(ctx context.Context, actor, id string, status models.AssetStatus) (*models.AssetModel, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown asset status %q", status)
	}
	a, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == status {
		return a, nil
	}
	from := a.Status
	if err := s.db.WithContext(ctx).Model(a).Update("status", status).Error; err != nil {
		return nil, err
	}
	a.Status = status
	action := models.ActionUpdate
	if status == models.AssetArchived {
		action = models.ActionArchive
	}
	s.record(ctx, actor, models.EntityAsset, a.ID, action, map[string]interface{}{"from": from, "to": status})
	return a, nil
}

// CreatePage adds a page to an asset and provisions its default position in
// the same transaction.
func (s *Service) CreatePage(ctx context.Context, actor, assetID string, dto CreatePageDTO) (*PageCreated, error) {
	name, err := cleanName("page", dto.Name)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}

	var out PageCreated
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		page, pos, err := createPageWithDefault(tx, assetID, name, dto.Path)
		if err != nil {
			return err
		}
		out.Page, out.Position = page, pos
		return nil
	})
	if err != nil {
		if apperr.IsDuplicateKey(err) {
			return nil, apperr.Conflict("page %q already exists on this asset", name)
		}
		return nil, err
	}
	s.record(ctx, actor, models.EntityPage, out.Page.ID, models.ActionCreate, map[string]interface{}{
		"asset_id": assetID, "name": name,
	})
	return &out, nil
}

func createPageWithDefault(tx *gorm.DB, assetID, name, path string) (models.PageModel, models.PositionModel, error) {
	page := models.PageModel{AssetID: assetID, Name: name, Path: path, Status: models.SlotActive}
	if err := tx.Create(&page).Error; err != nil {
		return page, models.PositionModel{}, err
	}
	pageID := page.ID
	pos := models.PositionModel{
		AssetID:   assetID,
		PageID:    &pageID,
		ParentKey: models.PageParentKey(pageID),
		Name:      models.DefaultPositionName,
		Status:    models.SlotActive,
	}
	if err := tx.Create(&pos).Error; err != nil {
		return page, pos, fmt.Errorf("create default position: %w", err)
	}
	return page, pos, nil
}

func (s *Service) GetPage(ctx context.Context, id string) (*models.PageModel, error) {
	var p models.PageModel
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("page %s not found", id)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) ListPages(ctx context.Context, assetID string, includeArchived bool) ([]models.PageModel, error) {
	if _, err := s.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Where("asset_id = ?", assetID).Order("name ASC")
	if !includeArchived {
		tx = tx.Where("status <> ?", models.SlotArchived)
	}
	var items []models.PageModel
	return items, tx.Find(&items).Error
}

func (s *Service) ArchivePage(ctx context.Context, actor, id string) (*models.PageModel, error) {
	p, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.SlotArchived {
		return p, nil
	}
	if err := s.db.WithContext(ctx).Model(p).Update("status", models.SlotArchived).Error; err != nil {
		return nil, err
	}
	p.Status = models.SlotArchived
	s.record(ctx, actor, models.EntityPage, p.ID, models.ActionArchive, nil)
	return p, nil
}

// CreatePosition adds a named slot under a page, or directly under an asset
// when no page is given.
func (s *Service) CreatePosition(ctx context.Context, actor string, dto CreatePositionDTO) (*models.PositionModel, error) {
	name, err := cleanName("position", dto.Name)
	if err != nil {
		return nil, err
	}

	pos := models.PositionModel{Name: name, Status: models.SlotActive}
	switch {
	case dto.PageID != "":
		page, err := s.GetPage(ctx, dto.PageID)
		if err != nil {
			return nil, err
		}
		if dto.AssetID != "" && dto.AssetID != page.AssetID {
			return nil, apperr.Validation("page %s does not belong to asset %s", page.ID, dto.AssetID)
		}
		pageID := page.ID
		pos.AssetID = page.AssetID
		pos.PageID = &pageID
		pos.ParentKey = models.PageParentKey(pageID)
	case dto.AssetID != "":
		if _, err := s.GetAsset(ctx, dto.AssetID); err != nil {
			return nil, err
		}
		pos.AssetID = dto.AssetID
		pos.ParentKey = models.AssetParentKey(dto.AssetID)
	default:
		return nil, apperr.Validation("page_id or asset_id is required")
	}

	if err := s.db.WithContext(ctx).Create(&pos).Error; err != nil {
		if apperr.IsDuplicateKey(err) {
			return nil, apperr.Conflict("position %q already exists", name)
		}
		return nil, err
	}
	details := map[string]interface{}{"asset_id": pos.AssetID, "name": name}
	if pos.PageID != nil {
		details["page_id"] = *pos.PageID
	}
	s.record(ctx, actor, models.EntityPosition, pos.ID, models.ActionCreate, details)
	return &pos, nil
}

func (s *Service) GetPosition(ctx context.Context, id string) (*models.PositionModel, error) {
	var p models.PositionModel
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("position %s not found", id)
		}
		return nil, err
	}
	return &p, nil
}

// PositionFilter selects positions by parent. PageID wins over AssetID.
type PositionFilter struct {
	PageID          string
	AssetID         string
	IncludeArchived bool
}

func (s *Service) ListPositions(ctx context.Context, f PositionFilter) ([]PositionListItem, error) {
	tx := s.db.WithContext(ctx).Model(&models.PositionModel{}).
		Select("positions.*, (SELECT COUNT(*) FROM deals WHERE deals.position_id = positions.id) AS deal_count").
		Order("positions.name ASC").Order("positions.id ASC")
	switch {
	case f.PageID != "":
		if _, err := s.GetPage(ctx, f.PageID); err != nil {
			return nil, err
		}
		tx = tx.Where("positions.page_id = ?", f.PageID)
	case f.AssetID != "":
		if _, err := s.GetAsset(ctx, f.AssetID); err != nil {
			return nil, err
		}
		tx = tx.Where("positions.asset_id = ?", f.AssetID)
	default:
		return nil, apperr.Validation("page_id or asset_id is required")
	}
	if !f.IncludeArchived {
		tx = tx.Where("positions.status <> ?", models.SlotArchived)
	}
	items := []PositionListItem{}
	if err := tx.Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) ArchivePosition(ctx context.Context, actor, id string) (*models.PositionModel, error) {
	p, err := s.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.SlotArchived {
		return p, nil
	}
	if err := s.db.WithContext(ctx).Model(p).Update("status", models.SlotArchived).Error; err != nil {
		return nil, err
	}
	p.Status = models.SlotArchived
	s.record(ctx, actor, models.EntityPosition, p.ID, models.ActionArchive, nil)
	return p, nil
}
