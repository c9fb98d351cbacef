package partner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/modules/system/audit"
	"github.com/dealdesk/core/internal/pkg/apperr"
	"github.com/dealdesk/core/internal/pkg/pagination"
	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/dealdesk/core/internal/pkg/sealbox"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	audit audit.Auditor
	box   *sealbox.Box
}

func NewService(db *gorm.DB, log *zap.Logger, auditor audit.Auditor, box *sealbox.Box) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log.Named("Partner"), audit: auditor, box: box}
}

func (s *Service) record(ctx context.Context, actor, entityType, entityID, action string, details map[string]interface{}) {
	if s.audit != nil {
		s.audit.Record(ctx, actor, entityType, entityID, action, details)
	}
}

func (s *Service) CreatePartner(ctx context.Context, actor string, dto CreatePartnerDTO) (*models.PartnerModel, error) {
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, apperr.Validation("partner name is required")
	}
	status := dto.Status
	if status == "" {
		status = models.PartnerLead
	}
	if !status.Valid() {
		return nil, apperr.Validation("unknown partner status %q", status)
	}
	owner := strings.TrimSpace(dto.OwnerID)
	if owner == "" {
		owner = actor
	}
	p := models.PartnerModel{Name: name, HasLicense: dto.HasLicense, IsDirect: dto.IsDirect, OwnerID: owner, Status: status}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.EntityPartner, p.ID, models.ActionCreate, map[string]interface{}{"name": name})
	return &p, nil
}

func (s *Service) GetPartner(ctx context.Context, id string) (*models.PartnerModel, error) {
	var p models.PartnerModel
	err := s.db.WithContext(ctx).
		Preload("Brands", func(tx *gorm.DB) *gorm.DB { return tx.Order("name ASC") }).
		Preload("Contacts", func(tx *gorm.DB) *gorm.DB { return tx.Order("name ASC") }).
		First(&p, "id = ?", id).Error
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("partner %s not found", id)
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) ListPartners(ctx context.Context, q pagination.Query, f ListFilter) ([]models.PartnerModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).Model(&models.PartnerModel{}).Order("name ASC").Order("id ASC")
	if term := strings.TrimSpace(f.Search); term != "" {
		tx = tx.Where("LOWER(name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(term))+"%")
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	var items []models.PartnerModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func (s *Service) UpdatePartnerStatus(ctx context.Context, actor, id string, status models.PartnerStatus) (*models.PartnerModel, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown partner status %q", status)
	}
	var p models.PartnerModel
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("partner %s not found", id)
		}
		return nil, err
	}
	if p.Status == status {
		return &p, nil
	}
	from := p.Status
	if err := s.db.WithContext(ctx).Model(&p).Update("status", status).Error; err != nil {
		return nil, err
	}
	p.Status = status
	s.record(ctx, actor, models.EntityPartner, p.ID, models.ActionUpdate, map[string]interface{}{"from": from, "to": status})
	return &p, nil
}

func (s *Service) partnerExists(ctx context.Context, id string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PartnerModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("partner %s not found", id)
	}
	return nil
}

func (s *Service) CreateBrand(ctx context.Context, actor, partnerID string, in BrandInput) (*models.BrandModel, error) {
	if err := s.partnerExists(ctx, partnerID); err != nil {
		return nil, err
	}
	b, err := NewBrand(partnerID, in)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.EntityBrand, b.ID, models.ActionCreate, map[string]interface{}{
		"partner_id": partnerID, "name": b.Name, "licenses": []string(b.Licenses),
	})
	return &b, nil
}

func (s *Service) ListBrands(ctx context.Context, partnerID string, includeArchived bool) ([]models.BrandModel, error) {
	if err := s.partnerExists(ctx, partnerID); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Where("partner_id = ?", partnerID).Order("name ASC")
	if !includeArchived {
		tx = tx.Where("status <> ?", models.BrandArchived)
	}
	var items []models.BrandModel
	return items, tx.Find(&items).Error
}

func (s *Service) ArchiveBrand(ctx context.Context, actor, brandID string) (*models.BrandModel, error) {
	var b models.BrandModel
	if err := s.db.WithContext(ctx).First(&b, "id = ?", brandID).Error; err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("brand %s not found", brandID)
		}
		return nil, err
	}
	if b.Status == models.BrandArchived {
		return &b, nil
	}
	if err := s.db.WithContext(ctx).Model(&b).Update("status", models.BrandArchived).Error; err != nil {
		return nil, err
	}
	b.Status = models.BrandArchived
	s.record(ctx, actor, models.EntityBrand, b.ID, models.ActionArchive, nil)
	return &b, nil
}

func (s *Service) AddContact(ctx context.Context, actor, partnerID string, dto CreateContactDTO) (*models.ContactModel, error) {
	if err := s.partnerExists(ctx, partnerID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, apperr.Validation("contact name is required")
	}
	c := models.ContactModel{PartnerID: partnerID, Name: name, Email: strings.TrimSpace(dto.Email), Role: strings.TrimSpace(dto.Role)}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.EntityPartner, partnerID, models.ActionUpdate, map[string]interface{}{"contact_added": c.ID})
	return &c, nil
}

func (s *Service) CreateCredential(ctx context.Context, actor, partnerID string, dto CreateCredentialDTO) (*models.CredentialModel, error) {
	if err := s.partnerExists(ctx, partnerID); err != nil {
		return nil, err
	}
	label := strings.TrimSpace(dto.Label)
	if label == "" {
		return nil, apperr.Validation("credential label is required")
	}
	if dto.Secret == "" {
		return nil, apperr.Validation("credential secret is required")
	}
	sealed, err := s.box.Seal(dto.Secret)
	if err != nil {
		return nil, fmt.Errorf("seal credential: %w", err)
	}
	c := models.CredentialModel{PartnerID: partnerID, Label: label, Username: dto.Username, LoginURL: dto.LoginURL, Sealed: sealed}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.EntityCredential, c.ID, models.ActionCreate, map[string]interface{}{
		"partner_id": partnerID, "label": label,
	})
	return &c, nil
}

// ListCredentials returns credential metadata; secrets stay sealed.
func (s *Service) ListCredentials(ctx context.Context, partnerID string) ([]models.CredentialModel, error) {
	if err := s.partnerExists(ctx, partnerID); err != nil {
		return nil, err
	}
	var items []models.CredentialModel
	err := s.db.WithContext(ctx).Where("partner_id = ?", partnerID).Order("label ASC").Find(&items).Error
	return items, err
}

// RevealCredential opens the secret and records the access.
func (s *Service) RevealCredential(ctx context.Context, actor, id string) (*RevealedCredential, error) {
	var c models.CredentialModel
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("credential %s not found", id)
		}
		return nil, err
	}
	secret, err := s.box.Open(c.Sealed)
	if err != nil {
		if errors.Is(err, sealbox.ErrOpen) || errors.Is(err, sealbox.ErrMalformed) {
			s.log.Error("credential cannot be opened with the configured key", zap.String("credential_id", c.ID))
		}
		return nil, fmt.Errorf("open credential: %w", err)
	}
	s.record(ctx, actor, models.EntityCredential, c.ID, models.ActionCredentialAccess, map[string]interface{}{
		"partner_id": c.PartnerID,
	})
	return &RevealedCredential{CredentialModel: c, Secret: secret}, nil
}
