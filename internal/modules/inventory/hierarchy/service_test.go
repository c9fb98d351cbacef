package hierarchy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"github.com/dealdesk/core/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testdb.Open(t)
	return NewService(db, zap.NewNop(), audit.NewRecorder(db, zap.NewNop(), nil)), db
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestCreateAssetProvisionsHomepage(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	out, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: " casino.example "})
	require.NoError(t, err)

	assert.Equal(t, "casino.example", out.Asset.Name)
	assert.Equal(t, models.AssetActive, out.Asset.Status)
	assert.Equal(t, models.HomepageName, out.Homepage.Name)
	assert.Equal(t, models.DefaultPositionName, out.Position.Name)
	require.NotNil(t, out.Position.PageID)
	assert.Equal(t, out.Homepage.ID, *out.Position.PageID)
	assert.EqualValues(t, 1, countRows(t, db, &models.AuditLogModel{}, "entity_id = ?", out.Asset.ID))
}

func TestCreatePageProvisionsDefaultPosition(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	asset, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: "a"})
	require.NoError(t, err)

	out, err := svc.CreatePage(ctx, "u1", asset.Asset.ID, CreatePageDTO{Name: "Reviews", Path: "/reviews"})
	require.NoError(t, err)

	positions, err := svc.ListPositions(ctx, PositionFilter{PageID: out.Page.ID})
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, models.DefaultPositionName, positions[0].Name)
	assert.Equal(t, out.Position.ID, positions[0].ID)
	assert.EqualValues(t, 1, countRows(t, db, &models.AuditLogModel{}, "entity_type = ? AND entity_id = ?", models.EntityPage, out.Page.ID))
}

func TestCreatePageDuplicateIsConflict(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	asset, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: "a"})
	require.NoError(t, err)
	other, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: "b"})
	require.NoError(t, err)

	_, err = svc.CreatePage(ctx, "u1", asset.Asset.ID, CreatePageDTO{Name: "Reviews"})
	require.NoError(t, err)

	_, err = svc.CreatePage(ctx, "u1", asset.Asset.ID, CreatePageDTO{Name: "Reviews"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)

	_, err = svc.CreatePage(ctx, "u1", other.Asset.ID, CreatePageDTO{Name: "Reviews"})
	assert.NoError(t, err, "names are scoped per asset")

	assert.EqualValues(t, 1, countRows(t, db, &models.PageModel{}, "asset_id = ? AND name = ?", asset.Asset.ID, "Reviews"))
	assert.EqualValues(t, 2, countRows(t, db, &models.PositionModel{}, "asset_id = ?", asset.Asset.ID),
		"homepage and one page default, no orphan from the failed attempt")
}

func TestCreatePageConcurrentSameName(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	asset, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: "a"})
	require.NoError(t, err)

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreatePage(ctx, "u1", asset.Asset.ID, CreatePageDTO{Name: "Bonus"})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
	assert.EqualValues(t, 1, countRows(t, db, &models.PageModel{}, "name = ?", "Bonus"))
}

func TestCreatePageRollsBackWhenDefaultPositionFails(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	asset, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: "a"})
	require.NoError(t, err)

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_positions", func(tx *gorm.DB) {
		if tx.Statement.Table == "positions" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err = svc.CreatePage(ctx, "u1", asset.Asset.ID, CreatePageDTO{Name: "Reviews"})
	require.Error(t, err)
	assert.False(t, apperr.Expected(err))
	assert.EqualValues(t, 0, countRows(t, db, &models.PageModel{}, "name = ?", "Reviews"))
}

func TestCreatePageUnknownAsset(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreatePage(context.Background(), "u1", "missing", CreatePageDTO{Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCreatePosition(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	asset, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: "a"})
	require.NoError(t, err)
	reviews, err := svc.CreatePage(ctx, "u1", asset.Asset.ID, CreatePageDTO{Name: "Reviews"})
	require.NoError(t, err)

	pos, err := svc.CreatePosition(ctx, "u1", CreatePositionDTO{PageID: asset.Homepage.ID, Name: "Top banner"})
	require.NoError(t, err)
	assert.Equal(t, asset.Asset.ID, pos.AssetID)

	_, err = svc.CreatePosition(ctx, "u1", CreatePositionDTO{PageID: asset.Homepage.ID, Name: "Top banner"})
	assert.True(t, errors.Is(err, apperr.ErrConflict), "duplicate under same page")

	_, err = svc.CreatePosition(ctx, "u1", CreatePositionDTO{PageID: reviews.Page.ID, Name: "Top banner"})
	assert.NoError(t, err, "same name under another page")

	legacy, err := svc.CreatePosition(ctx, "u1", CreatePositionDTO{AssetID: asset.Asset.ID, Name: "Top banner"})
	require.NoError(t, err, "legacy asset scope is separate")
	assert.Nil(t, legacy.PageID)

	_, err = svc.CreatePosition(ctx, "u1", CreatePositionDTO{AssetID: asset.Asset.ID, Name: "Top banner"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = svc.CreatePosition(ctx, "u1", CreatePositionDTO{PageID: "missing", Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = svc.CreatePosition(ctx, "u1", CreatePositionDTO{Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = svc.CreatePosition(ctx, "u1", CreatePositionDTO{PageID: reviews.Page.ID, AssetID: "other", Name: "y"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestListPositionsCountsDealsAndHidesArchived(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	asset, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: "a"})
	require.NoError(t, err)
	banner, err := svc.CreatePosition(ctx, "u1", CreatePositionDTO{PageID: asset.Homepage.ID, Name: "Banner"})
	require.NoError(t, err)

	for _, geo := range []string{"US", "GB"} {
		require.NoError(t, db.Create(&models.DealModel{
			PartnerID: "p", BrandID: "b", AssetID: asset.Asset.ID, PositionID: banner.ID,
			Geo: geo, Status: models.DealLive,
		}).Error)
	}

	items, err := svc.ListPositions(ctx, PositionFilter{PageID: asset.Homepage.ID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Banner", items[0].Name)
	assert.EqualValues(t, 2, items[0].DealCount)
	assert.Equal(t, models.DefaultPositionName, items[1].Name)
	assert.EqualValues(t, 0, items[1].DealCount)

	_, err = svc.ArchivePosition(ctx, "u1", banner.ID)
	require.NoError(t, err)

	items, err = svc.ListPositions(ctx, PositionFilter{PageID: asset.Homepage.ID})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = svc.ListPositions(ctx, PositionFilter{PageID: asset.Homepage.ID, IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestArchivePageFiltersList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	asset, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: "a"})
	require.NoError(t, err)
	reviews, err := svc.CreatePage(ctx, "u1", asset.Asset.ID, CreatePageDTO{Name: "Reviews"})
	require.NoError(t, err)

	archived, err := svc.ArchivePage(ctx, "u1", reviews.Page.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotArchived, archived.Status)

	pages, err := svc.ListPages(ctx, asset.Asset.ID, false)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, models.HomepageName, pages[0].Name)

	pages, err = svc.ListPages(ctx, asset.Asset.ID, true)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestUpdateAssetStatus(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	asset, err := svc.CreateAsset(ctx, "u1", CreateAssetDTO{Name: "a"})
	require.NoError(t, err)

	a, err := svc.UpdateAssetStatus(ctx, "u1", asset.Asset.ID, models.AssetArchived)
	require.NoError(t, err)
	assert.Equal(t, models.AssetArchived, a.Status)
	assert.EqualValues(t, 1, countRows(t, db, &models.AuditLogModel{}, "entity_id = ? AND action = ?", a.ID, models.ActionArchive))

	_, err = svc.UpdateAssetStatus(ctx, "u1", asset.Asset.ID, "Gone")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	items, err := svc.ListAssets(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, items)
}
