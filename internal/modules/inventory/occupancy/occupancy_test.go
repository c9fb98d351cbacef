package occupancy

import (
	"context"
	"testing"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func slot(name string, deals ...models.DealModel) Slot {
	s := Slot{Position: models.PositionModel{Name: name}, Deals: deals}
	s.Position.ID = name
	return s
}

func deal(geo string, status models.DealStatus) models.DealModel {
	return models.DealModel{Geo: geo, Status: status}
}

func names(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Position.Name
	}
	return out
}

func TestMatch(t *testing.T) {
	slots := []Slot{
		slot("P1"),
		slot("P2", deal("US", models.DealLive)),
		slot("P3", deal("US", models.DealInContact)),
		slot("P4", deal("", models.DealApproved)),
		slot("P5", deal("us", models.DealLive)),
		slot("P6", deal("GB", models.DealFullyImplemented), deal("US", models.DealInactive)),
		slot("P7", deal("US", models.DealStatus("Paused"))),
	}

	tests := []struct {
		geo  string
		want []string
	}{
		{"US", []string{"P1", "P3", "P4", "P5", "P6", "P7"}},
		{"GB", []string{"P1", "P2", "P3", "P4", "P5", "P7"}},
		{"", []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7"}},
	}
	for _, tt := range tests {
		t.Run(tt.geo, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Match(slots, tt.geo)))
		})
	}
}

func TestSortSlots(t *testing.T) {
	mk := func(asset, pos, id string) Slot {
		s := Slot{Asset: models.AssetModel{Name: asset}, Position: models.PositionModel{Name: pos}}
		s.Position.ID = id
		return s
	}
	slots := []Slot{mk("b", "x", "1"), mk("a", "z", "2"), mk("a", "y", "4"), mk("a", "y", "3")}
	SortSlots(slots)

	var got []string
	for _, s := range slots {
		got = append(got, s.Asset.Name+"/"+s.Position.Name+"/"+s.Position.ID)
	}
	assert.Equal(t, []string{"a/y/3", "a/y/4", "a/z/2", "b/x/1"}, got)
}

type world struct {
	db *gorm.DB
}

func (w world) asset(t *testing.T, name string, status models.AssetStatus) models.AssetModel {
	a := models.AssetModel{Name: name, Status: status}
	require.NoError(t, w.db.Create(&a).Error)
	return a
}

func (w world) page(t *testing.T, a models.AssetModel, name string, status models.SlotStatus) models.PageModel {
	p := models.PageModel{AssetID: a.ID, Name: name, Status: status}
	require.NoError(t, w.db.Create(&p).Error)
	return p
}

func (w world) position(t *testing.T, p models.PageModel, name string, status models.SlotStatus) models.PositionModel {
	pageID := p.ID
	pos := models.PositionModel{AssetID: p.AssetID, PageID: &pageID, ParentKey: models.PageParentKey(p.ID), Name: name, Status: status}
	require.NoError(t, w.db.Create(&pos).Error)
	return pos
}

func (w world) deal(t *testing.T, pos models.PositionModel, geo string, status models.DealStatus) {
	require.NoError(t, w.db.Create(&models.DealModel{
		PartnerID: "p", BrandID: "b", AssetID: pos.AssetID, PositionID: pos.ID, PageID: pos.PageID,
		Geo: geo, Status: status,
	}).Error)
}

func TestOpenByGeo(t *testing.T) {
	db := testdb.Open(t)
	w := world{db: db}
	svc := NewService(db)
	ctx := context.Background()

	a := w.asset(t, "casino.example", models.AssetActive)
	home := w.page(t, a, models.HomepageName, models.SlotActive)
	p1 := w.position(t, home, "P1", models.SlotActive)
	p2 := w.position(t, home, "P2", models.SlotActive)
	w.deal(t, p2, "US", models.DealLive)

	got, err := svc.Open(ctx, "US")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p1.ID, got[0].Position.ID)

	got, err = svc.Open(ctx, " gb ")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, names(got))

	all, err := svc.Open(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Empty(t, all[0].Deals)
	require.Len(t, all[1].Deals, 1)
	assert.Equal(t, "US", all[1].Deals[0].Geo)
	assert.Equal(t, "casino.example", all[1].Asset.Name)
	assert.Equal(t, models.HomepageName, all[1].Page.Name)
}

func TestLoadExcludesInactiveInventory(t *testing.T) {
	db := testdb.Open(t)
	w := world{db: db}
	svc := NewService(db)

	live := w.asset(t, "b-live", models.AssetActive)
	livePage := w.page(t, live, models.HomepageName, models.SlotActive)
	w.position(t, livePage, "ok", models.SlotActive)
	w.position(t, livePage, "archived", models.SlotArchived)
	archivedPage := w.page(t, live, "Old", models.SlotArchived)
	w.position(t, archivedPage, "on archived page", models.SlotActive)

	dormant := w.asset(t, "a-dormant", models.AssetInactive)
	dormantPage := w.page(t, dormant, models.HomepageName, models.SlotActive)
	w.position(t, dormantPage, "on inactive asset", models.SlotActive)

	legacy := models.PositionModel{AssetID: live.ID, ParentKey: models.AssetParentKey(live.ID), Name: "legacy", Status: models.SlotActive}
	require.NoError(t, db.Create(&legacy).Error)

	slots, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, names(slots))
}

func TestLoadOrdersByAssetThenPosition(t *testing.T) {
	db := testdb.Open(t)
	w := world{db: db}
	svc := NewService(db)

	b := w.asset(t, "beta", models.AssetActive)
	bHome := w.page(t, b, models.HomepageName, models.SlotActive)
	w.position(t, bHome, "aaa", models.SlotActive)
	a := w.asset(t, "alpha", models.AssetActive)
	aHome := w.page(t, a, models.HomepageName, models.SlotActive)
	aOther := w.page(t, a, "Reviews", models.SlotActive)
	w.position(t, aHome, "zzz", models.SlotActive)
	w.position(t, aOther, "mmm", models.SlotActive)

	slots, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mmm", "zzz", "aaa"}, names(slots))
}

func TestLoadEmpty(t *testing.T) {
	svc := NewService(testdb.Open(t))
	slots, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, slots)
}
