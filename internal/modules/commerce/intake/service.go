package intake

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/modules/commerce/partner"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"github.com/dealdesk/core/internal/modules/system/licensecode"
	"github.com/dealdesk/core/internal/modules/system/notify"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"github.com/dealdesk/core/internal/pkg/clock"
	"github.com/dealdesk/core/internal/pkg/pagination"
	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/dealdesk/core/internal/pkg/token"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrLinkUsed    = apperr.Gone("intake link has already been used")
	ErrLinkExpired = apperr.Gone("intake link has expired")
	errLinkUnknown = apperr.NotFound("intake link not found")
)

const day = 24 * time.Hour

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	audit    audit.Auditor
	notifier notify.Broadcaster
	issuer   token.Issuer
	clock    clock.Clock
	opts     Options
}

func NewService(db *gorm.DB, log *zap.Logger, auditor audit.Auditor, notifier notify.Broadcaster, issuer token.Issuer, clk clock.Clock, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	if opts.DefaultExpiry <= 0 {
		opts.DefaultExpiry = 7 * day
	}
	return &Service{db: db, log: log.Named("Intake"), audit: auditor, notifier: notifier, issuer: issuer, clock: clk, opts: opts}
}

func (s *Service) record(ctx context.Context, actor, entityType, entityID, action string, details map[string]interface{}) {
	if s.audit != nil {
		s.audit.Record(ctx, actor, entityType, entityID, action, details)
	}
}

func (s *Service) linkURL(raw string) string {
	return strings.TrimRight(s.opts.BaseURL, "/") + "/intake/" + raw
}

func stateOf(link models.IntakeLinkModel, now time.Time) LinkState {
	switch {
	case link.UsedAt != nil:
		return LinkUsed
	case now.After(link.ExpiresAt):
		return LinkExpired
	default:
		return LinkActive
	}
}

func usable(link models.IntakeLinkModel, now time.Time) error {
	switch stateOf(link, now) {
	case LinkUsed:
		return ErrLinkUsed
	case LinkExpired:
		return ErrLinkExpired
	}
	return nil
}

// IssueLink creates a single-use link. Only the token hash is stored; the raw
// token is in the result and nowhere else.
func (s *Service) IssueLink(ctx context.Context, actor string, dto IssueLinkDTO) (*IssuedLink, error) {
	expiry := s.opts.DefaultExpiry
	if dto.ExpiresInDays < 0 {
		return nil, apperr.Validation("expires_in_days must be positive")
	}
	if dto.ExpiresInDays > 0 {
		expiry = time.Duration(dto.ExpiresInDays) * day
	}
	if s.opts.MaxExpiry > 0 && expiry > s.opts.MaxExpiry {
		return nil, apperr.Validation("expires_in_days exceeds the maximum of %d", int(s.opts.MaxExpiry/day))
	}

	raw, handle, err := s.issuer.Issue()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	link := models.IntakeLinkModel{
		TokenHash: handle,
		CreatedBy: actor,
		ExpiresAt: now.Add(expiry),
		Note:      strings.TrimSpace(dto.Note),
	}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.EntityIntakeLink, link.ID, models.ActionCreate, map[string]interface{}{
		"expires_at": link.ExpiresAt,
	})
	return &IssuedLink{ID: link.ID, Token: raw, URL: s.linkURL(raw), ExpiresAt: link.ExpiresAt}, nil
}

func (s *Service) findLink(tx *gorm.DB, raw string) (models.IntakeLinkModel, error) {
	var link models.IntakeLinkModel
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return link, errLinkUnknown
	}
	if err := tx.First(&link, "token_hash = ?", s.issuer.Handle(raw)).Error; err != nil {
		if apperr.IsNotFound(err) {
			return link, errLinkUnknown
		}
		return link, err
	}
	return link, nil
}

// Validate reports whether raw can still be submitted. It never mutates.
func (s *Service) Validate(ctx context.Context, raw string) (*LinkInfo, error) {
	link, err := s.findLink(s.db.WithContext(ctx), raw)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := usable(link, now); err != nil {
		return nil, err
	}
	return &LinkInfo{ExpiresAt: link.ExpiresAt, Remaining: link.ExpiresAt.Sub(now).Round(time.Minute).String()}, nil
}

func encodeProposals(in []models.BrandProposal) (models.RawJSON, error) {
	out := make([]models.BrandProposal, 0, len(in))
	for i, p := range in {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, apperr.Validation("brands[%d].name is required", i)
		}
		p.Licenses = licensecode.Remap(p.Licenses)
		out = append(out, p)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return models.RawJSON(data), nil
}

// Submit consumes the link behind raw. The link is re-checked inside the
// transaction and claimed with a conditional update, so concurrent
// submissions produce exactly one row.
func (s *Service) Submit(ctx context.Context, raw string, dto SubmitDTO) (*models.IntakeSubmissionModel, error) {
	company := strings.TrimSpace(dto.CompanyName)
	if company == "" {
		return nil, apperr.Validation("company_name is required")
	}
	brands, err := encodeProposals(dto.Brands)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var sub models.IntakeSubmissionModel
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link, err := s.findLink(tx, raw)
		if err != nil {
			return err
		}
		if err := usable(link, now); err != nil {
			return err
		}
		res := tx.Model(&models.IntakeLinkModel{}).
			Where("id = ? AND used_at IS NULL", link.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLinkUsed
		}

		sub = models.IntakeSubmissionModel{
			LinkID:       link.ID,
			CompanyName:  company,
			ContactName:  strings.TrimSpace(dto.ContactName),
			ContactEmail: strings.TrimSpace(dto.ContactEmail),
			Website:      strings.TrimSpace(dto.Website),
			Message:      dto.Message,
			Brands:       brands,
			Status:       models.SubmissionPending,
		}
		if err := tx.Create(&sub).Error; err != nil {
			if apperr.IsDuplicateKey(err) {
				return ErrLinkUsed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, models.ExternalActor, models.EntitySubmission, sub.ID, models.ActionCreate, map[string]interface{}{
		"link_id": sub.LinkID, "company_name": sub.CompanyName,
	})
	if s.notifier != nil {
		s.notifier.Broadcast(notify.Notice{
			Type:       models.NotifyIntakeSubmitted,
			Title:      "New intake submission",
			Message:    sub.CompanyName + " submitted the intake form",
			EntityType: models.EntitySubmission,
			EntityID:   sub.ID,
		})
	}
	return &sub, nil
}

func (s *Service) GetSubmission(ctx context.Context, id string) (*models.IntakeSubmissionModel, error) {
	return getSubmission(s.db.WithContext(ctx), id)
}

func getSubmission(tx *gorm.DB, id string) (*models.IntakeSubmissionModel, error) {
	var sub models.IntakeSubmissionModel
	if err := tx.First(&sub, "id = ?", id).Error; err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("submission %s not found", id)
		}
		return nil, err
	}
	return &sub, nil
}

func alreadyDecided(status models.SubmissionStatus) error {
	return apperr.Conflict("submission already %s", strings.ToLower(string(status)))
}

// decide moves a Pending submission to status. Losing a race against another
// decision yields the same Conflict as a sequential retry.
func decide(tx *gorm.DB, id string, updates map[string]interface{}) error {
	res := tx.Model(&models.IntakeSubmissionModel{}).
		Where("id = ? AND status = ?", id, models.SubmissionPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		current, err := getSubmission(tx, id)
		if err != nil {
			return err
		}
		return alreadyDecided(current.Status)
	}
	return nil
}

func (s *Service) Reject(ctx context.Context, actor, id, reason string) (*models.IntakeSubmissionModel, error) {
	db := s.db.WithContext(ctx)
	sub, err := getSubmission(db, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubmissionPending {
		return nil, alreadyDecided(sub.Status)
	}

	now := s.clock.Now()
	updates := map[string]interface{}{
		"status":     models.SubmissionRejected,
		"decided_by": actor,
		"decided_at": now,
	}
	var why *string
	if r := strings.TrimSpace(reason); r != "" {
		why = &r
		updates["rejection_reason"] = r
	}
	if err := decide(db, sub.ID, updates); err != nil {
		return nil, err
	}

	sub.Status, sub.DecidedBy, sub.DecidedAt, sub.RejectionReason = models.SubmissionRejected, &actor, &now, why
	s.record(ctx, actor, models.EntitySubmission, sub.ID, models.ActionReject, map[string]interface{}{"reason": reason})
	return sub, nil
}

// Convert turns a Pending submission into a Lead partner with one brand per
// proposal. Everything commits together.
func (s *Service) Convert(ctx context.Context, actor, id string) (*Converted, error) {
	now := s.clock.Now()
	var out Converted
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := getSubmission(tx, id)
		if err != nil {
			return err
		}
		if sub.Status != models.SubmissionPending {
			return alreadyDecided(sub.Status)
		}
		proposals, err := decodeProposals(sub.Brands)
		if err != nil {
			return err
		}

		p := models.PartnerModel{Name: sub.CompanyName, OwnerID: actor, Status: models.PartnerLead}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if sub.ContactName != "" || sub.ContactEmail != "" {
			name := sub.ContactName
			if name == "" {
				name = sub.ContactEmail
			}
			contact := models.ContactModel{PartnerID: p.ID, Name: name, Email: sub.ContactEmail}
			if err := tx.Create(&contact).Error; err != nil {
				return err
			}
			p.Contacts = []models.ContactModel{contact}
		}
		for _, prop := range proposals {
			brand, err := partner.NewBrand(p.ID, partner.BrandInput{
				Name: prop.Name, Domains: prop.Domains, Licenses: prop.Licenses, TargetGeos: prop.TargetGeos,
			})
			if err != nil {
				return err
			}
			if err := tx.Create(&brand).Error; err != nil {
				return err
			}
			p.Brands = append(p.Brands, brand)
		}

		if err := decide(tx, sub.ID, map[string]interface{}{
			"status":     models.SubmissionConverted,
			"decided_by": actor,
			"decided_at": now,
			"partner_id": p.ID,
		}); err != nil {
			return err
		}
		sub.Status, sub.DecidedBy, sub.DecidedAt, sub.PartnerID = models.SubmissionConverted, &actor, &now, &p.ID
		out.Submission, out.Partner = *sub, p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, models.EntitySubmission, out.Submission.ID, models.ActionConvert, map[string]interface{}{
		"partner_id": out.Partner.ID,
	})
	s.record(ctx, actor, models.EntityPartner, out.Partner.ID, models.ActionCreate, map[string]interface{}{
		"source": "intake", "submission_id": out.Submission.ID, "brands": len(out.Partner.Brands),
	})
	return &out, nil
}

func decodeProposals(raw models.RawJSON) ([]models.BrandProposal, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var out []models.BrandProposal
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, apperr.Validation("submission brands are malformed")
	}
	return out, nil
}

func (s *Service) ListLinks(ctx context.Context, q pagination.Query) ([]LinkView, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.IntakeLinkModel{}).Order("created_at DESC").Order("id DESC")
	var links []models.IntakeLinkModel
	pag, err := pagination.Paginate(tx, q, &links)
	if err != nil {
		return nil, pag, err
	}
	now := s.clock.Now()
	out := make([]LinkView, len(links))
	for i, l := range links {
		out[i] = LinkView{IntakeLinkModel: l, State: stateOf(l, now)}
	}
	return out, pag, nil
}

func (s *Service) ListSubmissions(ctx context.Context, q pagination.Query, status models.SubmissionStatus) ([]models.IntakeSubmissionModel, response.Pagination, error) {
	if status != "" && !status.Valid() {
		return nil, response.Pagination{}, apperr.Validation("unknown submission status %q", status)
	}
	tx := s.db.WithContext(ctx).Model(&models.IntakeSubmissionModel{}).Order("created_at DESC").Order("id DESC")
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var items []models.IntakeSubmissionModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}
