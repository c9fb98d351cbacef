package intake

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"github.com/dealdesk/core/internal/modules/system/notify"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"github.com/dealdesk/core/internal/pkg/clock"
	"github.com/dealdesk/core/internal/pkg/pagination"
	"github.com/dealdesk/core/internal/pkg/testdb"
	"github.com/dealdesk/core/internal/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type captured struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (c *captured) Broadcast(n notify.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

type env struct {
	svc     *Service
	db      *gorm.DB
	clk     *clock.Fixed
	notices *captured
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	e := &env{db: db, clk: clock.NewFixed(time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)), notices: &captured{}}
	e.svc = NewService(db, zap.NewNop(), audit.NewRecorder(db, zap.NewNop(), e.clk), e.notices, token.NewIssuer(), e.clk, Options{
		BaseURL:       "https://deals.example.com/",
		DefaultExpiry: 7 * day,
		MaxExpiry:     30 * day,
	})
	return e
}

func (e *env) issue(t *testing.T) *IssuedLink {
	t.Helper()
	link, err := e.svc.IssueLink(context.Background(), "u1", IssueLinkDTO{})
	require.NoError(t, err)
	return link
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestIssueLinkStoresOnlyHash(t *testing.T) {
	e := setup(t)
	link := e.issue(t)

	assert.Equal(t, "https://deals.example.com/intake/"+link.Token, link.URL)
	assert.True(t, link.ExpiresAt.Equal(e.clk.Now().Add(7*day)))

	var row models.IntakeLinkModel
	require.NoError(t, e.db.First(&row, "id = ?", link.ID).Error)
	assert.Equal(t, token.SHA256{}.Hash(link.Token), row.TokenHash)
	assert.NotEqual(t, link.Token, row.TokenHash)
	assert.Equal(t, "u1", row.CreatedBy)
}

func TestIssueLinkExpiryBounds(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.IssueLink(ctx, "u1", IssueLinkDTO{ExpiresInDays: 31})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = e.svc.IssueLink(ctx, "u1", IssueLinkDTO{ExpiresInDays: -1})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	link, err := e.svc.IssueLink(ctx, "u1", IssueLinkDTO{ExpiresInDays: 30})
	require.NoError(t, err)
	assert.True(t, link.ExpiresAt.Equal(e.clk.Now().Add(30*day)))
}

func TestValidateExpiry(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	link := e.issue(t)

	e.clk.Advance(6 * day)
	info, err := e.svc.Validate(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "24h0m0s", info.Remaining)

	e.clk.Advance(2 * day)
	_, err = e.svc.Validate(ctx, link.Token)
	assert.True(t, errors.Is(err, ErrLinkExpired))
	assert.True(t, errors.Is(err, apperr.ErrGone))
}

func TestValidateUnknownToken(t *testing.T) {
	e := setup(t)
	for _, raw := range []string{"", "   ", "not-a-token"} {
		_, err := e.svc.Validate(context.Background(), raw)
		assert.True(t, errors.Is(err, apperr.ErrNotFound), "token %q", raw)
	}
}

func TestSubmitConsumesLinkOnce(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	link := e.issue(t)
	dto := SubmitDTO{
		CompanyName: " Acme Ltd ",
		Brands: []models.BrandProposal{
			{Name: "AcmeBet", Licenses: []string{"UKGC", "UK", "MT"}, TargetGeos: []string{"gb"}},
		},
	}

	sub, err := e.svc.Submit(ctx, link.Token, dto)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", sub.CompanyName)
	assert.Equal(t, models.SubmissionPending, sub.Status)

	var proposals []models.BrandProposal
	require.NoError(t, json.Unmarshal(sub.Brands, &proposals))
	require.Len(t, proposals, 1)
	assert.Equal(t, []string{"GB", "MT"}, proposals[0].Licenses)

	_, err = e.svc.Submit(ctx, link.Token, dto)
	assert.True(t, errors.Is(err, ErrLinkUsed))
	_, err = e.svc.Validate(ctx, link.Token)
	assert.True(t, errors.Is(err, ErrLinkUsed))

	assert.EqualValues(t, 1, count(t, e.db, &models.IntakeSubmissionModel{}))
	require.Len(t, e.notices.notices, 1)
	assert.Equal(t, models.NotifyIntakeSubmitted, e.notices.notices[0].Type)

	var entry models.AuditLogModel
	require.NoError(t, e.db.First(&entry, "entity_id = ?", sub.ID).Error)
	assert.Equal(t, models.ExternalActor, entry.UserID)
}

// testdb runs on one connection, so these submits are serialized by the
// pool. What this covers is the used_at IS NULL guard rejecting every
// submit after the first, not interleaving inside the transaction.
func TestSubmitConcurrentSingleWinner(t *testing.T) {
	e := setup(t)
	link := e.issue(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Submit(context.Background(), link.Token, SubmitDTO{CompanyName: "Acme"})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, ErrLinkUsed), "got %v", err)
	}
	assert.Equal(t, 1, ok)
	assert.EqualValues(t, 1, count(t, e.db, &models.IntakeSubmissionModel{}))
}

func TestSubmitExpiredLeavesLinkUnused(t *testing.T) {
	e := setup(t)
	link := e.issue(t)
	e.clk.Advance(8 * day)

	_, err := e.svc.Submit(context.Background(), link.Token, SubmitDTO{CompanyName: "Acme"})
	assert.True(t, errors.Is(err, ErrLinkExpired))

	var row models.IntakeLinkModel
	require.NoError(t, e.db.First(&row, "id = ?", link.ID).Error)
	assert.Nil(t, row.UsedAt)
	assert.Zero(t, count(t, e.db, &models.IntakeSubmissionModel{}))
	assert.Empty(t, e.notices.notices)
}

func TestSubmitRejectsInvalidProposal(t *testing.T) {
	e := setup(t)
	link := e.issue(t)

	_, err := e.svc.Submit(context.Background(), link.Token, SubmitDTO{
		CompanyName: "Acme",
		Brands:      []models.BrandProposal{{Name: "  "}},
	})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = e.svc.Validate(context.Background(), link.Token)
	assert.NoError(t, err, "link stays usable")
}

func submitOne(t *testing.T, e *env, dto SubmitDTO) *models.IntakeSubmissionModel {
	t.Helper()
	link := e.issue(t)
	sub, err := e.svc.Submit(context.Background(), link.Token, dto)
	require.NoError(t, err)
	return sub
}

func TestRejectTwice(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	sub := submitOne(t, e, SubmitDTO{CompanyName: "Acme"})

	rejected, err := e.svc.Reject(ctx, "u2", sub.ID, "not a fit")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "not a fit", *rejected.RejectionReason)

	_, err = e.svc.Reject(ctx, "u3", sub.ID, "again")
	require.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Contains(t, err.Error(), "already rejected")

	stored, err := e.svc.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, stored.Status)
	require.NotNil(t, stored.DecidedBy)
	assert.Equal(t, "u2", *stored.DecidedBy)
	assert.Equal(t, "not a fit", *stored.RejectionReason)

	_, err = e.svc.Convert(ctx, "u2", sub.ID)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestConvertCreatesPartnerAndBrands(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	sub := submitOne(t, e, SubmitDTO{
		CompanyName:  "Acme",
		ContactEmail: "ops@acme.example",
		Brands: []models.BrandProposal{
			{Name: "AcmeBet", Licenses: []string{"MGA"}, TargetGeos: []string{"de", "DE"}},
			{Name: "AcmeSpin", Domains: []string{"Spin.Example"}},
		},
	})

	out, err := e.svc.Convert(ctx, "u2", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnerLead, out.Partner.Status)
	assert.Equal(t, "u2", out.Partner.OwnerID)
	require.Len(t, out.Partner.Brands, 2)
	assert.Equal(t, models.StringArray{"MT"}, out.Partner.Brands[0].Licenses)
	assert.Equal(t, models.StringArray{"DE"}, out.Partner.Brands[0].TargetGeos)
	assert.Equal(t, models.StringArray{"spin.example"}, out.Partner.Brands[1].Domains)
	require.Len(t, out.Partner.Contacts, 1)
	assert.Equal(t, "ops@acme.example", out.Partner.Contacts[0].Name)

	stored, err := e.svc.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionConverted, stored.Status)
	require.NotNil(t, stored.PartnerID)
	assert.Equal(t, out.Partner.ID, *stored.PartnerID)

	assert.EqualValues(t, 1, count(t, e.db, &models.PartnerModel{}))
	assert.EqualValues(t, 2, count(t, e.db, &models.BrandModel{}))

	_, err = e.svc.Convert(ctx, "u2", sub.ID)
	require.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Contains(t, err.Error(), "already converted")
	assert.EqualValues(t, 1, count(t, e.db, &models.PartnerModel{}))
}

func TestConvertMalformedBrandsRollsBack(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	sub := submitOne(t, e, SubmitDTO{CompanyName: "Acme"})
	require.NoError(t, e.db.Model(&models.IntakeSubmissionModel{}).Where("id = ?", sub.ID).
		Update("brands", models.RawJSON(`{"name":"x"}`)).Error)

	_, err := e.svc.Convert(ctx, "u2", sub.ID)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Zero(t, count(t, e.db, &models.PartnerModel{}))

	stored, err := e.svc.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionPending, stored.Status)
}

func TestListLinksComputesState(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	used := e.issue(t)
	_, err := e.svc.Submit(ctx, used.Token, SubmitDTO{CompanyName: "Acme"})
	require.NoError(t, err)
	short, err := e.svc.IssueLink(ctx, "u1", IssueLinkDTO{ExpiresInDays: 1})
	require.NoError(t, err)
	active := e.issue(t)
	e.clk.Advance(2 * day)

	items, pag, err := e.svc.ListLinks(ctx, pagination.Query{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, pag.Total)

	states := map[string]LinkState{}
	for _, it := range items {
		states[it.ID] = it.State
	}
	assert.Equal(t, LinkUsed, states[used.ID])
	assert.Equal(t, LinkExpired, states[short.ID])
	assert.Equal(t, LinkActive, states[active.ID])
}

func TestListSubmissionsByStatus(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	first := submitOne(t, e, SubmitDTO{CompanyName: "A"})
	submitOne(t, e, SubmitDTO{CompanyName: "B"})
	_, err := e.svc.Reject(ctx, "u1", first.ID, "")
	require.NoError(t, err)

	q := pagination.Query{Page: 1, Size: 10}
	items, _, err := e.svc.ListSubmissions(ctx, q, models.SubmissionPending)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].CompanyName)

	_, _, err = e.svc.ListSubmissions(ctx, q, "Archived")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
