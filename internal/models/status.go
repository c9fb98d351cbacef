package models

// Status values are persisted verbatim; renaming one requires a data migration.

// PartnerStatus tracks how far a partner is through onboarding.
type PartnerStatus string

const (
	PartnerLead               PartnerStatus = "Lead"
	PartnerEstablishedContact PartnerStatus = "EstablishedContact"
	PartnerPlatformSignedUp   PartnerStatus = "PlatformSignedUp"
	PartnerAwaitingKYC        PartnerStatus = "AwaitingKYC"
	PartnerAvailableForAsset  PartnerStatus = "AvailableForAsset"
	PartnerAwaitingPostback   PartnerStatus = "AwaitingPostback"
	PartnerActive             PartnerStatus = "Active"
)

func (s PartnerStatus) Valid() bool {
	switch s {
	case PartnerLead, PartnerEstablishedContact, PartnerPlatformSignedUp, PartnerAwaitingKYC,
		PartnerAvailableForAsset, PartnerAwaitingPostback, PartnerActive:
		return true
	}
	return false
}

type BrandStatus string

const (
	BrandActive   BrandStatus = "Active"
	BrandInactive BrandStatus = "Inactive"
	BrandArchived BrandStatus = "Archived"
)

func (s BrandStatus) Valid() bool {
	switch s {
	case BrandActive, BrandInactive, BrandArchived:
		return true
	}
	return false
}

type AssetStatus string

const (
	AssetActive   AssetStatus = "Active"
	AssetInactive AssetStatus = "Inactive"
	AssetArchived AssetStatus = "Archived"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetActive, AssetInactive, AssetArchived:
		return true
	}
	return false
}

// SlotStatus is shared by pages and positions.
type SlotStatus string

const (
	SlotActive   SlotStatus = "Active"
	SlotArchived SlotStatus = "Archived"
)

func (s SlotStatus) Valid() bool {
	return s == SlotActive || s == SlotArchived
}

// DealStatus is the lifecycle of a deal, from first contact to Live and
// finally Inactive.
type DealStatus string

const (
	DealUnsure           DealStatus = "Unsure"
	DealInContact        DealStatus = "InContact"
	DealApproved         DealStatus = "Approved"
	DealAwaitingPostback DealStatus = "AwaitingPostback"
	DealFullyImplemented DealStatus = "FullyImplemented"
	DealLive             DealStatus = "Live"
	DealInactive         DealStatus = "Inactive"
)

// DealStatuses lists every known deal status in lifecycle order.
func DealStatuses() []DealStatus {
	return []DealStatus{
		DealUnsure, DealInContact, DealApproved, DealAwaitingPostback,
		DealFullyImplemented, DealLive, DealInactive,
	}
}

func (s DealStatus) Valid() bool {
	switch s {
	case DealUnsure, DealInContact, DealApproved, DealAwaitingPostback,
		DealFullyImplemented, DealLive, DealInactive:
		return true
	}
	return false
}

// IsPipeline reports whether the deal is still working towards Live.
// Unknown values are never pipeline.
func (s DealStatus) IsPipeline() bool {
	switch s {
	case DealUnsure, DealInContact, DealApproved, DealAwaitingPostback, DealFullyImplemented:
		return true
	case DealLive, DealInactive:
		return false
	}
	return false
}

// IsOccupying reports whether the deal holds its position. Early-stage
// deals (Unsure, InContact) do not reserve inventory. Unknown values never
// occupy.
func (s DealStatus) IsOccupying() bool {
	switch s {
	case DealApproved, DealAwaitingPostback, DealFullyImplemented, DealLive:
		return true
	case DealUnsure, DealInContact, DealInactive:
		return false
	}
	return false
}

// OccupyingDealStatuses returns the statuses for which IsOccupying is true,
// for use in store filters.
func OccupyingDealStatuses() []DealStatus {
	out := make([]DealStatus, 0, 4)
	for _, s := range DealStatuses() {
		if s.IsOccupying() {
			out = append(out, s)
		}
	}
	return out
}

type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "Pending"
	SubmissionConverted SubmissionStatus = "Converted"
	SubmissionRejected  SubmissionStatus = "Rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionConverted, SubmissionRejected:
		return true
	}
	return false
}
