package deal

import (
	"context"
	"time"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/modules/inventory/occupancy"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"github.com/dealdesk/core/internal/modules/system/notify"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"github.com/dealdesk/core/internal/pkg/clock"
	"github.com/dealdesk/core/internal/pkg/pagination"
	"github.com/dealdesk/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	audit    audit.Auditor
	notifier notify.Broadcaster
	clock    clock.Clock
}

func NewService(db *gorm.DB, log *zap.Logger, auditor audit.Auditor, notifier notify.Broadcaster, clk clock.Clock) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{db: db, log: log.Named("Deal"), audit: auditor, notifier: notifier, clock: clk}
}

func (s *Service) record(ctx context.Context, actor, entityID, action string, details map[string]interface{}) {
	if s.audit != nil {
		s.audit.Record(ctx, actor, models.EntityDeal, entityID, action, details)
	}
}

func validGeo(geo string) bool {
	if len(geo) != 2 {
		return false
	}
	for _, r := range geo {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// build checks every reference in dto and returns the deal to insert.
func build(tx *gorm.DB, dto CreateDealDTO) (models.DealModel, error) {
	geo := occupancy.NormalizeGeo(dto.Geo)
	if !validGeo(geo) {
		return models.DealModel{}, apperr.Validation("geo %q is not a two-letter country code", dto.Geo)
	}
	status := dto.Status
	if status == "" {
		status = models.DealUnsure
	}
	if !status.Valid() {
		return models.DealModel{}, apperr.Validation("unknown deal status %q", status)
	}

	var partner models.PartnerModel
	if err := tx.First(&partner, "id = ?", dto.PartnerID).Error; err != nil {
		return models.DealModel{}, notFound(err, "partner", dto.PartnerID)
	}
	var brand models.BrandModel
	if err := tx.First(&brand, "id = ?", dto.BrandID).Error; err != nil {
		return models.DealModel{}, notFound(err, "brand", dto.BrandID)
	}
	if brand.PartnerID != partner.ID {
		return models.DealModel{}, apperr.Validation("brand %s does not belong to partner %s", brand.ID, partner.ID)
	}
	if brand.Status == models.BrandArchived {
		return models.DealModel{}, apperr.Conflict("brand %s is archived", brand.ID)
	}
	var asset models.AssetModel
	if err := tx.First(&asset, "id = ?", dto.AssetID).Error; err != nil {
		return models.DealModel{}, notFound(err, "asset", dto.AssetID)
	}
	var pos models.PositionModel
	if err := tx.First(&pos, "id = ?", dto.PositionID).Error; err != nil {
		return models.DealModel{}, notFound(err, "position", dto.PositionID)
	}
	if pos.AssetID != asset.ID {
		return models.DealModel{}, apperr.Validation("position %s does not belong to asset %s", pos.ID, asset.ID)
	}
	if pos.Status == models.SlotArchived {
		return models.DealModel{}, apperr.Conflict("position %s is archived", pos.ID)
	}
	if pos.PageID != nil {
		var page models.PageModel
		if err := tx.First(&page, "id = ?", *pos.PageID).Error; err != nil {
			return models.DealModel{}, notFound(err, "page", *pos.PageID)
		}
		if page.AssetID != asset.ID {
			return models.DealModel{}, apperr.Validation("page %s does not belong to asset %s", page.ID, asset.ID)
		}
	}

	d := models.DealModel{
		PartnerID:  partner.ID,
		BrandID:    brand.ID,
		AssetID:    asset.ID,
		PositionID: pos.ID,
		Geo:        geo,
		Status:     status,
		Notes:      dto.Notes,
	}
	if pos.PageID != nil {
		pageID := *pos.PageID
		d.PageID = &pageID
	}
	return d, nil
}

func notFound(err error, kind, id string) error {
	if apperr.IsNotFound(err) {
		return apperr.NotFound("%s %s not found", kind, id)
	}
	return err
}

func occupying(tx *gorm.DB, positionID, geo, exceptID string) ([]models.DealModel, error) {
	var deals []models.DealModel
	q := tx.Where("position_id = ? AND geo = ? AND status IN ?", positionID, geo, models.OccupyingDealStatuses())
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Order("created_at ASC").Order("id ASC").Find(&deals).Error
	return deals, err
}

func ids(deals []models.DealModel) []string {
	out := make([]string, len(deals))
	for i, d := range deals {
		out[i] = d.ID
	}
	return out
}

// Create inserts a deal. Occupancy is advisory: other occupying deals on the
// same position and geo are reported, not rejected.
func (s *Service) Create(ctx context.Context, actor string, dto CreateDealDTO) (*Created, error) {
	var out Created
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := build(tx, dto)
		if err != nil {
			return err
		}
		if err := tx.Create(&d).Error; err != nil {
			return err
		}
		others, err := occupying(tx, d.PositionID, d.Geo, d.ID)
		if err != nil {
			return err
		}
		out.Deal, out.Conflicting = d, ids(others)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out.Conflicting) > 0 {
		s.log.Info("deal created on occupied position",
			zap.String("deal_id", out.Deal.ID),
			zap.String("position_id", out.Deal.PositionID),
			zap.String("geo", out.Deal.Geo),
			zap.Strings("conflicting", out.Conflicting),
		)
	}
	s.record(ctx, actor, out.Deal.ID, models.ActionCreate, map[string]interface{}{
		"position_id": out.Deal.PositionID, "geo": out.Deal.Geo, "status": out.Deal.Status,
		"conflicting": out.Conflicting,
	})
	return &out, nil
}

// Replace ends every occupying deal on the position and geo and creates the
// new one in the same transaction.
func (s *Service) Replace(ctx context.Context, actor string, dto CreateDealDTO) (*Replaced, error) {
	now := s.clock.Now()
	var out Replaced
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := build(tx, dto)
		if err != nil {
			return err
		}
		current, err := occupying(tx, d.PositionID, d.Geo, "")
		if err != nil {
			return err
		}
		out.Ended = ids(current)
		if len(out.Ended) > 0 {
			if err := tx.Model(&models.DealModel{}).Where("id IN ?", out.Ended).
				Updates(map[string]interface{}{"status": models.DealInactive, "ended_at": now}).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&d).Error; err != nil {
			return err
		}
		out.Deal = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range out.Ended {
		s.record(ctx, actor, id, models.ActionEndedByReplacement, map[string]interface{}{"replaced_by": out.Deal.ID})
	}
	s.record(ctx, actor, out.Deal.ID, models.ActionCreateReplacement, map[string]interface{}{
		"position_id": out.Deal.PositionID, "geo": out.Deal.Geo, "replaces": out.Ended,
	})
	if s.notifier != nil && len(out.Ended) > 0 {
		s.notifier.Broadcast(notify.Notice{
			Type:       models.NotifyDealReplaced,
			Title:      "Deal replaced",
			Message:    "A deal on position " + out.Deal.PositionID + " for " + out.Deal.Geo + " was replaced",
			EntityType: models.EntityDeal,
			EntityID:   out.Deal.ID,
		})
	}
	return &out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.DealModel, error) {
	var d models.DealModel
	if err := s.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "deal", id)
	}
	return &d, nil
}

// UpdateStatus moves a deal to status. Moving to Inactive stamps EndedAt;
// leaving Inactive clears it.
func (s *Service) UpdateStatus(ctx context.Context, actor, id string, status models.DealStatus) (*models.DealModel, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown deal status %q", status)
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == status {
		return d, nil
	}
	from := d.Status
	updates := map[string]interface{}{"status": status}
	var endedAt *time.Time
	if status == models.DealInactive {
		now := s.clock.Now()
		endedAt = &now
	}
	updates["ended_at"] = endedAt
	if err := s.db.WithContext(ctx).Model(&models.DealModel{}).Where("id = ?", d.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	d.Status, d.EndedAt = status, endedAt
	s.record(ctx, actor, d.ID, models.ActionUpdate, map[string]interface{}{"from": from, "to": status})
	return d, nil
}

func (s *Service) List(ctx context.Context, q pagination.Query, f ListFilter) ([]models.DealModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.DealModel{}).Order("created_at DESC").Order("id DESC")
	if f.PartnerID != "" {
		tx = tx.Where("partner_id = ?", f.PartnerID)
	}
	if f.BrandID != "" {
		tx = tx.Where("brand_id = ?", f.BrandID)
	}
	if f.AssetID != "" {
		tx = tx.Where("asset_id = ?", f.AssetID)
	}
	if f.PositionID != "" {
		tx = tx.Where("position_id = ?", f.PositionID)
	}
	if geo := occupancy.NormalizeGeo(f.Geo); geo != "" {
		tx = tx.Where("geo = ?", geo)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	var items []models.DealModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// Pipeline counts deals by status. Unknown stored statuses are logged and
// counted separately.
func (s *Service) Pipeline(ctx context.Context) (*PipelineCounts, error) {
	var rows []struct {
		Status models.DealStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.DealModel{}).
		Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := &PipelineCounts{ByStatus: make(map[models.DealStatus]int64, len(models.DealStatuses()))}
	for _, st := range models.DealStatuses() {
		out.ByStatus[st] = 0
	}
	for _, r := range rows {
		if !r.Status.Valid() {
			s.log.Warn("deals with unknown status", zap.String("status", string(r.Status)), zap.Int64("count", r.Count))
			if out.Unknown == nil {
				out.Unknown = map[string]int64{}
			}
			out.Unknown[string(r.Status)] += r.Count
			continue
		}
		out.ByStatus[r.Status] = r.Count
		if r.Status.IsPipeline() {
			out.Pipeline += r.Count
		}
		if r.Status == models.DealLive {
			out.Live += r.Count
		}
	}
	return out, nil
}
