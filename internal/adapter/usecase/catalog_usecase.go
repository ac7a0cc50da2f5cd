package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

const (
	defaultInfluencerListLimit = 100
	maxInfluencerListLimit     = 500
)

// CatalogUseCase validates and stores the influencers and campaigns the
// workflow engine reads when drafting.
type CatalogUseCase struct {
	repo port.OutreachRepository
	now  func() time.Time
}

var _ port.CatalogUseCase = (*CatalogUseCase)(nil)

func NewCatalogUseCase(repo port.OutreachRepository) *CatalogUseCase {
	return &CatalogUseCase{repo: repo, now: time.Now}
}

func (u *CatalogUseCase) clock() time.Time {
	return u.now().UTC().Truncate(time.Microsecond)
}

// CreateInfluencer stores a new influencer. Platform and handle are
// required and normalised to lower case without a leading @.
func (u *CatalogUseCase) CreateInfluencer(ctx context.Context, in port.NewInfluencer) (*domain.Influencer, error) {
	platform := strings.ToLower(strings.TrimSpace(in.Platform))
	if platform == "" {
		return nil, &domain.ValidationError{Field: "platform", Reason: "must not be empty"}
	}
	handle := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(in.Handle), "@"))
	if handle == "" {
		return nil, &domain.ValidationError{Field: "handle", Reason: "must not be empty"}
	}
	email, err := normaliseEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validateMetrics(in.Followers, in.EngagementRate); err != nil {
		return nil, err
	}

	now := u.clock()
	inf := &domain.Influencer{
		ID:             uuid.New(),
		Platform:       platform,
		Handle:         handle,
		DisplayName:    strings.TrimSpace(in.DisplayName),
		ProfileURL:     strings.TrimSpace(in.ProfileURL),
		Email:          email,
		Bio:            strings.TrimSpace(in.Bio),
		Followers:      in.Followers,
		EngagementRate: in.EngagementRate,
		NicheTags:      in.NicheTags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := u.repo.CreateInfluencer(ctx, inf); err != nil {
		return nil, fmt.Errorf("create influencer: %w", err)
	}
	return inf, nil
}

func (u *CatalogUseCase) GetInfluencer(ctx context.Context, id uuid.UUID) (*domain.Influencer, error) {
	return u.repo.GetInfluencer(ctx, id)
}

func (u *CatalogUseCase) ListInfluencers(ctx context.Context, filter port.InfluencerFilter) ([]domain.Influencer, error) {
	filter.Platform = strings.ToLower(strings.TrimSpace(filter.Platform))
	if filter.Limit <= 0 {
		filter.Limit = defaultInfluencerListLimit
	}
	if filter.Limit > maxInfluencerListLimit {
		filter.Limit = maxInfluencerListLimit
	}
	return u.repo.ListInfluencers(ctx, filter)
}

// RefreshProfile updates the refreshable profile attributes of an
// influencer. Identity fields cannot change.
func (u *CatalogUseCase) RefreshProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (*domain.Influencer, error) {
	if upd.Email != nil {
		email, err := normaliseEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	if err := validateMetrics(upd.Followers, upd.EngagementRate); err != nil {
		return nil, err
	}
	return u.repo.UpdateInfluencer(ctx, id, upd)
}

// CreateCampaign stores a campaign. Rules are kept as given apart from
// trimming the brand name.
func (u *CatalogUseCase) CreateCampaign(ctx context.Context, in port.NewCampaign) (*domain.Campaign, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	offer := strings.TrimSpace(in.OfferType)
	if offer == "" {
		offer = string(domain.OfferGifted)
	}
	offerType, err := domain.ParseOfferType(offer)
	if err != nil {
		return nil, err
	}

	rules := in.Rules
	rules.BrandContext.BrandName = strings.TrimSpace(rules.BrandContext.BrandName)
	c := &domain.Campaign{
		ID:        uuid.New(),
		Name:      name,
		OfferType: offerType,
		Rules:     rules,
		CreatedAt: u.clock(),
	}
	if err := u.repo.CreateCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return c, nil
}

func (u *CatalogUseCase) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return u.repo.GetCampaign(ctx, id)
}

func (u *CatalogUseCase) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return u.repo.ListCampaigns(ctx)
}

// normaliseEmail accepts an empty address or a bare RFC 5322 address.
func normaliseEmail(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", &domain.ValidationError{Field: "email", Reason: "not a valid address"}
	}
	return strings.ToLower(v), nil
}

func validateMetrics(followers *int64, engagement *float64) error {
	if followers != nil && *followers < 0 {
		return &domain.ValidationError{Field: "followers", Reason: "must not be negative"}
	}
	if engagement != nil && (*engagement < 0 || *engagement > 1) {
		return &domain.ValidationError{Field: "engagement_rate", Reason: "must be between 0 and 1"}
	}
	return nil
}
