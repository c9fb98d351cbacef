package licensecode

import (
	"context"
	"testing"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"github.com/dealdesk/core/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigratorRun(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	legacy := models.BrandModel{PartnerID: "p", Name: "legacy", Licenses: models.StringArray{"UKGC", "GB", "mga"}, Status: models.BrandActive}
	modern := models.BrandModel{PartnerID: "p", Name: "modern", Licenses: models.StringArray{"GB"}, Status: models.BrandActive}
	require.NoError(t, db.Create(&legacy).Error)
	require.NoError(t, db.Create(&modern).Error)

	subLegacy := models.IntakeSubmissionModel{LinkID: "l1", CompanyName: "Acme", Status: models.SubmissionPending,
		Brands: models.RawJSON(`[{"name":"Acme Bet","licenses":["UK","SGA"]}]`)}
	subOdd := models.IntakeSubmissionModel{LinkID: "l2", CompanyName: "Odd", Status: models.SubmissionPending,
		Brands: models.RawJSON(`{"name":"not a list"}`)}
	subClean := models.IntakeSubmissionModel{LinkID: "l3", CompanyName: "Clean", Status: models.SubmissionPending,
		Brands: models.RawJSON(`[{"name":"Clean","licenses":["DE"]}]`)}
	for _, s := range []*models.IntakeSubmissionModel{&subLegacy, &subOdd, &subClean} {
		require.NoError(t, db.Create(s).Error)
	}

	m := NewMigrator(db, zap.NewNop(), audit.NewRecorder(db, zap.NewNop(), nil))

	report, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{
		BrandsScanned: 2, BrandsUpdated: 1,
		SubmissionsScanned: 3, SubmissionsUpdated: 1, SubmissionsSkipped: 1,
	}, report)

	var got models.BrandModel
	require.NoError(t, db.First(&got, "id = ?", legacy.ID).Error)
	assert.Equal(t, models.StringArray{"GB", "MT"}, got.Licenses)

	var sub models.IntakeSubmissionModel
	require.NoError(t, db.First(&sub, "id = ?", subLegacy.ID).Error)
	assert.JSONEq(t, `[{"name":"Acme Bet","licenses":["GB","SE"]}]`, string(sub.Brands))

	var odd models.IntakeSubmissionModel
	require.NoError(t, db.First(&odd, "id = ?", subOdd.ID).Error)
	assert.Equal(t, `{"name":"not a list"}`, string(odd.Brands))

	var audits int64
	require.NoError(t, db.Model(&models.AuditLogModel{}).Where("user_id = ? AND action = ?", models.SystemActor, models.ActionUpdate).Count(&audits).Error)
	assert.EqualValues(t, 2, audits)

	again, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.BrandsUpdated)
	assert.Zero(t, again.SubmissionsUpdated)

	require.NoError(t, db.Model(&models.AuditLogModel{}).Count(&audits).Error)
	assert.EqualValues(t, 2, audits, "rerun writes no audit rows")
}

func TestMigratorRewritesLegacyText(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	b := models.BrandModel{PartnerID: "p", Name: "csv", Status: models.BrandActive}
	require.NoError(t, db.Create(&b).Error)
	require.NoError(t, db.Exec("UPDATE brands SET licenses = ? WHERE id = ?", "UKGC, MGA", b.ID).Error)

	report, err := NewMigrator(db, zap.NewNop(), nil).Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.BrandsUpdated)

	var raw string
	require.NoError(t, db.Raw("SELECT licenses FROM brands WHERE id = ?", b.ID).Scan(&raw).Error)
	assert.JSONEq(t, `["GB","MT"]`, raw)
}

func TestMigratorNormalizesTextWithoutCodeChanges(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	b := models.BrandModel{PartnerID: "p", Name: "already-iso", Status: models.BrandActive}
	require.NoError(t, db.Create(&b).Error)
	require.NoError(t, db.Exec("UPDATE brands SET licenses = ? WHERE id = ?", "GB,MT", b.ID).Error)

	m := NewMigrator(db, zap.NewNop(), nil)
	report, err := m.Run(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.BrandsUpdated)

	var raw string
	require.NoError(t, db.Raw("SELECT licenses FROM brands WHERE id = ?", b.ID).Scan(&raw).Error)
	assert.JSONEq(t, `["GB","MT"]`, raw)

	again, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.BrandsUpdated)
}
