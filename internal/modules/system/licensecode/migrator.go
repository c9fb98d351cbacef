package licensecode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrateBatchSize = 200

// Report counts rows rewritten by Migrator.Run.
type Report struct {
	BrandsScanned      int64 `json:"brands_scanned"`
	BrandsUpdated      int64 `json:"brands_updated"`
	SubmissionsScanned int64 `json:"submissions_scanned"`
	SubmissionsUpdated int64 `json:"submissions_updated"`
	SubmissionsSkipped int64 `json:"submissions_skipped"`
}

// Migrator rewrites stored license lists through Remap. Rows whose value is
// already remapped are left untouched, so reruns write nothing.
type Migrator struct {
	db    *gorm.DB
	log   *zap.Logger
	audit audit.Auditor
}

func NewMigrator(db *gorm.DB, log *zap.Logger, auditor audit.Auditor) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{db: db, log: log.Named("LicenseCode"), audit: auditor}
}

func (m *Migrator) Run(ctx context.Context) (Report, error) {
	var report Report
	if err := m.migrateBrands(ctx, &report); err != nil {
		return report, fmt.Errorf("brands: %w", err)
	}
	if err := m.migrateSubmissions(ctx, &report); err != nil {
		return report, fmt.Errorf("intake submissions: %w", err)
	}
	m.log.Info("license migration finished",
		zap.Int64("brands_updated", report.BrandsUpdated),
		zap.Int64("submissions_updated", report.SubmissionsUpdated),
		zap.Int64("submissions_skipped", report.SubmissionsSkipped),
	)
	return report, nil
}

func (m *Migrator) record(ctx context.Context, entityType, entityID string, details map[string]interface{}) {
	if m.audit != nil {
		m.audit.Record(ctx, models.SystemActor, entityType, entityID, models.ActionUpdate, details)
	}
}

func (m *Migrator) migrateBrands(ctx context.Context, report *Report) error {
	db := m.db.WithContext(ctx)

	// Rows still holding comma-separated text are rewritten as JSON even when
	// no code changes.
	var textIDs []string
	if err := db.Model(&models.BrandModel{}).
		Where("licenses IS NOT NULL AND licenses NOT LIKE ?", "[%").
		Pluck("id", &textIDs).Error; err != nil {
		return err
	}
	legacyText := make(map[string]bool, len(textIDs))
	for _, id := range textIDs {
		legacyText[id] = true
	}

	var batch []models.BrandModel
	res := db.Select("id", "licenses").FindInBatches(&batch, migrateBatchSize, func(_ *gorm.DB, _ int) error {
		for _, b := range batch {
			report.BrandsScanned++
			before := []string(b.Licenses)
			after := Remap(before)
			if Equal(before, after) && !legacyText[b.ID] {
				continue
			}
			if err := db.Model(&models.BrandModel{}).Where("id = ?", b.ID).
				Update("licenses", models.StringArray(after)).Error; err != nil {
				return err
			}
			report.BrandsUpdated++
			m.record(ctx, models.EntityBrand, b.ID, map[string]interface{}{
				"field": "licenses", "from": before, "to": after,
			})
		}
		return nil
	})
	return res.Error
}

func (m *Migrator) migrateSubmissions(ctx context.Context, report *Report) error {
	db := m.db.WithContext(ctx)
	var batch []models.IntakeSubmissionModel
	res := db.Select("id", "brands").FindInBatches(&batch, migrateBatchSize, func(_ *gorm.DB, _ int) error {
		for _, sub := range batch {
			report.SubmissionsScanned++
			rewritten, changed, ok := RemapProposals(sub.Brands)
			if !ok {
				report.SubmissionsSkipped++
				m.log.Debug("submission brands not a list, skipped", zap.String("submission_id", sub.ID))
				continue
			}
			if !changed {
				continue
			}
			if err := db.Model(&models.IntakeSubmissionModel{}).Where("id = ?", sub.ID).
				Update("brands", rewritten).Error; err != nil {
				return err
			}
			report.SubmissionsUpdated++
			m.record(ctx, models.EntitySubmission, sub.ID, map[string]interface{}{"field": "brands.licenses"})
		}
		return nil
	})
	return res.Error
}

// RemapProposals remaps the licenses list of every object in a JSON array of
// brand proposals. Other fields and non-object entries are kept as they are.
// ok is false when raw is not a JSON array; changed is false when no license
// list differs after remapping.
func RemapProposals(raw models.RawJSON) (out models.RawJSON, changed, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return raw, false, false
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return raw, false, false
	}

	for i, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			continue
		}
		licensesRaw, present := fields["licenses"]
		if !present {
			continue
		}
		var licenses []string
		if err := json.Unmarshal(licensesRaw, &licenses); err != nil || licenses == nil {
			continue
		}
		remapped := Remap(licenses)
		if Equal(licenses, remapped) {
			continue
		}
		encoded, err := json.Marshal(remapped)
		if err != nil {
			return raw, false, true
		}
		fields["licenses"] = encoded
		rebuilt, err := json.Marshal(fields)
		if err != nil {
			return raw, false, true
		}
		entries[i] = rebuilt
		changed = true
	}
	if !changed {
		return raw, false, true
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return raw, false, true
	}
	return models.RawJSON(encoded), true, true
}
