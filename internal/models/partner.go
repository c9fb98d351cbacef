package models

// PartnerModel is an organization supplying brands.
type PartnerModel struct {
	Base
	Name       string        `json:"name"        gorm:"size:191;index;not null"`
	HasLicense bool          `json:"has_license"`
	IsDirect   bool          `json:"is_direct"`
	OwnerID    string        `json:"owner_id"    gorm:"size:36;index"`
	Status     PartnerStatus `json:"status"      gorm:"size:32;index;not null"`

	Brands      []BrandModel      `json:"brands,omitempty"   gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE"`
	Contacts    []ContactModel    `json:"contacts,omitempty" gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE"`
	Credentials []CredentialModel `json:"-"                  gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE"`
}

func (PartnerModel) TableName() string { return "partners" }

// BrandModel is a partner's product line.
type BrandModel struct {
	Base
	PartnerID  string      `json:"partner_id"  gorm:"size:36;index;not null"`
	Name       string      `json:"name"        gorm:"size:191;not null"`
	Domains    StringArray `json:"domains"     gorm:"type:text"`
	Licenses   StringArray `json:"licenses"    gorm:"type:text"`
	TargetGeos StringArray `json:"target_geos" gorm:"type:text"`
	Status     BrandStatus `json:"status"      gorm:"size:32;index;not null"`
}

func (BrandModel) TableName() string { return "brands" }

type ContactModel struct {
	Base
	PartnerID string `json:"partner_id" gorm:"size:36;index;not null"`
	Name      string `json:"name"       gorm:"not null"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (ContactModel) TableName() string { return "contacts" }

// CredentialModel holds a partner platform login. The secret is sealed at
// rest and only opened through an audited reveal.
type CredentialModel struct {
	Base
	PartnerID string `json:"partner_id" gorm:"size:36;index;not null"`
	Label     string `json:"label"      gorm:"not null"`
	Username  string `json:"username"`
	LoginURL  string `json:"login_url"`
	Sealed    string `json:"-"          gorm:"type:text;not null"`
}

func (CredentialModel) TableName() string { return "credentials" }
