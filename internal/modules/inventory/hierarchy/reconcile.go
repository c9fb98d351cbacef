package hierarchy

import (
	"context"
	"fmt"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReconcileReport counts the rows each repair step changed. A second run over
// repaired data reports zero everywhere.
type ReconcileReport struct {
	HomepagesCreated        int64 `json:"homepages_created"`
	PositionsAttached       int64 `json:"positions_attached"`
	PositionsSkipped        int64 `json:"positions_skipped"`
	DefaultPositionsCreated int64 `json:"default_positions_created"`
	DealsBackfilled         int64 `json:"deals_backfilled"`
}

// Reconcile repairs data written before pages existed: every asset gets a
// Homepage, positions without a page move under it, every Homepage ends up
// with its "N/A" position, and deals without a page copy it from their
// position. Every step is insert-if-absent or guarded by a null check, so
// reruns are no-ops.
func (s *Service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	db := s.db.WithContext(ctx)

	created, err := s.ensureHomepages(ctx, db)
	if err != nil {
		return report, fmt.Errorf("ensure homepages: %w", err)
	}
	report.HomepagesCreated = created

	attached, skipped, err := s.attachOrphanPositions(ctx, db)
	if err != nil {
		return report, fmt.Errorf("attach positions: %w", err)
	}
	report.PositionsAttached, report.PositionsSkipped = attached, skipped

	// After the attach step, so a legacy orphan named "N/A" keeps the slot.
	defaults, err := s.ensureDefaultPositions(ctx, db)
	if err != nil {
		return report, fmt.Errorf("default positions: %w", err)
	}
	report.DefaultPositionsCreated = defaults

	res := db.Exec(`UPDATE deals SET page_id = (
			SELECT positions.page_id FROM positions WHERE positions.id = deals.position_id
		)
		WHERE (deals.page_id IS NULL OR deals.page_id = '')
		AND EXISTS (
			SELECT 1 FROM positions
			WHERE positions.id = deals.position_id
			AND positions.page_id IS NOT NULL AND positions.page_id <> ''
		)`)
	if res.Error != nil {
		return report, fmt.Errorf("backfill deals: %w", res.Error)
	}
	report.DealsBackfilled = res.RowsAffected

	s.log.Info("reconcile finished",
		zap.Int64("homepages_created", report.HomepagesCreated),
		zap.Int64("positions_attached", report.PositionsAttached),
		zap.Int64("positions_skipped", report.PositionsSkipped),
		zap.Int64("default_positions_created", report.DefaultPositionsCreated),
		zap.Int64("deals_backfilled", report.DealsBackfilled),
	)
	return report, nil
}

func (s *Service) ensureHomepages(ctx context.Context, db *gorm.DB) (int64, error) {
	var assetIDs []string
	err := db.Model(&models.AssetModel{}).
		Where("NOT EXISTS (SELECT 1 FROM pages WHERE pages.asset_id = assets.id AND pages.name = ?)", models.HomepageName).
		Order("id ASC").
		Pluck("id", &assetIDs).Error
	if err != nil {
		return 0, err
	}

	var created int64
	for _, assetID := range assetIDs {
		page := models.PageModel{AssetID: assetID, Name: models.HomepageName, Path: "/", Status: models.SlotActive}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&page)
		if res.Error != nil {
			return created, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		created++
		s.record(ctx, models.SystemActor, models.EntityPage, page.ID, models.ActionCreate, map[string]interface{}{
			"asset_id": assetID, "name": models.HomepageName, "reason": "reconcile",
		})
	}
	return created, nil
}

func (s *Service) attachOrphanPositions(ctx context.Context, db *gorm.DB) (int64, int64, error) {
	var orphans []models.PositionModel
	if err := db.Where("page_id IS NULL OR page_id = ''").Order("id ASC").Find(&orphans).Error; err != nil {
		return 0, 0, err
	}

	homepages := map[string]string{}
	var attached, skipped int64
	for _, pos := range orphans {
		homeID, ok := homepages[pos.AssetID]
		if !ok {
			var home models.PageModel
			err := db.Where("asset_id = ? AND name = ?", pos.AssetID, models.HomepageName).First(&home).Error
			if apperr.IsNotFound(err) {
				s.log.Warn("orphan position has no asset homepage", zap.String("position_id", pos.ID), zap.String("asset_id", pos.AssetID))
				skipped++
				continue
			}
			if err != nil {
				return attached, skipped, err
			}
			homeID = home.ID
			homepages[pos.AssetID] = homeID
		}

		res := db.Model(&models.PositionModel{}).
			Where("id = ? AND (page_id IS NULL OR page_id = '')", pos.ID).
			Updates(map[string]interface{}{"page_id": homeID, "parent_key": models.PageParentKey(homeID)})
		if res.Error != nil {
			if apperr.IsDuplicateKey(res.Error) {
				s.log.Warn("orphan position name already taken on homepage",
					zap.String("position_id", pos.ID), zap.String("name", pos.Name))
				skipped++
				continue
			}
			return attached, skipped, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		attached++
		s.record(ctx, models.SystemActor, models.EntityPosition, pos.ID, models.ActionUpdate, map[string]interface{}{
			"page_id": homeID, "reason": "reconcile",
		})
	}
	return attached, skipped, nil
}

func (s *Service) ensureDefaultPositions(ctx context.Context, db *gorm.DB) (int64, error) {
	var homes []models.PageModel
	err := db.Select("id", "asset_id").
		Where("name = ?", models.HomepageName).
		Where("NOT EXISTS (SELECT 1 FROM positions WHERE positions.page_id = pages.id AND positions.name = ?)", models.DefaultPositionName).
		Order("id ASC").
		Find(&homes).Error
	if err != nil {
		return 0, err
	}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "parent_key"}, {Name: "name"}},
		DoNothing: true,
	}
	var created int64
	for _, home := range homes {
		pageID := home.ID
		pos := models.PositionModel{
			AssetID:   home.AssetID,
			PageID:    &pageID,
			ParentKey: models.PageParentKey(pageID),
			Name:      models.DefaultPositionName,
			Status:    models.SlotActive,
		}
		res := db.Clauses(onConflict).Create(&pos)
		if res.Error != nil {
			return created, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		created++
		s.record(ctx, models.SystemActor, models.EntityPosition, pos.ID, models.ActionCreate, map[string]interface{}{
			"page_id": pageID, "name": models.DefaultPositionName, "reason": "reconcile",
		})
	}
	return created, nil
}
