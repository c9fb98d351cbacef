package partner

import (
	"strings"

	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/modules/system/licensecode"
	"github.com/dealdesk/core/internal/pkg/apperr"
)

type CreatePartnerDTO struct {
	Name       string               `json:"name"        binding:"required"`
	HasLicense bool                 `json:"has_license"`
	IsDirect   bool                 `json:"is_direct"`
	OwnerID    string               `json:"owner_id"`
	Status     models.PartnerStatus `json:"status"`
}

type UpdateStatusDTO struct {
	Status models.PartnerStatus `json:"status" binding:"required"`
}

// BrandInput is shared by brand creation and intake conversion.
type BrandInput struct {
	Name       string   `json:"name"        binding:"required"`
	Domains    []string `json:"domains"`
	Licenses   []string `json:"licenses"`
	TargetGeos []string `json:"target_geos"`
}

type CreateContactDTO struct {
	Name  string `json:"name"  binding:"required"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type CreateCredentialDTO struct {
	Label    string `json:"label"     binding:"required"`
	Username string `json:"username"`
	LoginURL string `json:"login_url"`
	Secret   string `json:"secret"    binding:"required"`
}

// RevealedCredential carries the opened secret back to the caller once.
type RevealedCredential struct {
	models.CredentialModel
	Secret string `json:"secret"`
}

// ListFilter narrows ListPartners. Search is a case-insensitive substring of
// the partner name.
type ListFilter struct {
	Search string
	Status models.PartnerStatus
}

// NewBrand validates in and builds an Active brand for partnerID. Licenses
// are remapped to ISO codes; geos are upper-cased and deduplicated.
func NewBrand(partnerID string, in BrandInput) (models.BrandModel, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.BrandModel{}, apperr.Validation("brand name is required")
	}
	return models.BrandModel{
		PartnerID:  partnerID,
		Name:       name,
		Domains:    models.StringArray(cleanList(in.Domains, strings.ToLower)),
		Licenses:   models.StringArray(licensecode.Remap(in.Licenses)),
		TargetGeos: models.StringArray(cleanList(in.TargetGeos, strings.ToUpper)),
		Status:     models.BrandActive,
	}, nil
}

func cleanList(in []string, fold func(string) string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = fold(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
