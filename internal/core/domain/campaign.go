package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OfferType is what the brand offers the creator.
type OfferType string

const (
	OfferGifted    OfferType = "gifted"
	OfferPaid      OfferType = "paid"
	OfferAffiliate OfferType = "affiliate"
)

func ParseOfferType(v string) (OfferType, error) {
	switch OfferType(v) {
	case OfferGifted, OfferPaid, OfferAffiliate:
		return OfferType(v), nil
	}
	return "", &ValidationError{Field: "offer_type", Reason: fmt.Sprintf("unknown offer type %q", v)}
}

// Campaign is the outreach ruleset drafts are generated from.
type Campaign struct {
	ID        uuid.UUID
	Name      string
	OfferType OfferType
	Rules     CampaignRules
	CreatedAt time.Time
}

// CampaignRules is stored as a JSON document alongside the campaign.
type CampaignRules struct {
	BrandContext BrandContext `json:"brand_context"`
	Offer        Offer        `json:"offer"`
	Constraints  []string     `json:"constraints,omitempty"`
}

// BrandContext describes who is reaching out.
type BrandContext struct {
	BrandName string `json:"brand_name,omitempty"`
	Site      string `json:"site,omitempty"`
	Voice     string `json:"voice,omitempty"`
}

// Offer is the concrete proposal and the call to action.
type Offer struct {
	Details string `json:"details,omitempty"`
	CTA     string `json:"cta,omitempty"`
}
