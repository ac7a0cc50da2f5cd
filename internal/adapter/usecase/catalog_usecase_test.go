package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-outreach/internal/adapter/memory"
	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

func TestCreateInfluencerNormalises(t *testing.T) {
	uc := NewCatalogUseCase(memory.New())
	ctx := context.Background()

	inf, err := uc.CreateInfluencer(ctx, port.NewInfluencer{
		Platform: " Instagram ",
		Handle:   "@GlowWithMia",
		Email:    "mia@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "instagram", inf.Platform)
	assert.Equal(t, "glowwithmia", inf.Handle)

	got, err := uc.GetInfluencer(ctx, inf.ID)
	require.NoError(t, err)
	assert.Equal(t, inf.ID, got.ID)
}

func TestCreateInfluencerRejectsInvalid(t *testing.T) {
	uc := NewCatalogUseCase(memory.New())
	negative := int64(-1)
	rate := 1.5

	cases := map[string]port.NewInfluencer{
		"missing platform": {Handle: "a"},
		"missing handle":   {Platform: "tiktok", Handle: "@"},
		"bad email":        {Platform: "tiktok", Handle: "a", Email: "not-an-email"},
		"named email":      {Platform: "tiktok", Handle: "a", Email: "Mia <mia@example.com>"},
		"negative counts":  {Platform: "tiktok", Handle: "a", Followers: &negative},
		"rate above one":   {Platform: "tiktok", Handle: "a", EngagementRate: &rate},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.CreateInfluencer(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRefreshProfile(t *testing.T) {
	uc := NewCatalogUseCase(memory.New())
	ctx := context.Background()

	inf, err := uc.CreateInfluencer(ctx, port.NewInfluencer{Platform: "youtube", Handle: "chef"})
	require.NoError(t, err)

	email := "Chef@Example.com"
	bio := "Weeknight recipes"
	updated, err := uc.RefreshProfile(ctx, inf.ID, domain.ProfileUpdate{Email: &email, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", updated.Email)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, "chef", updated.Handle)

	_, err = uc.RefreshProfile(ctx, uuid.New(), domain.ProfileUpdate{Bio: &bio})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateCampaign(t *testing.T) {
	uc := NewCatalogUseCase(memory.New())
	ctx := context.Background()

	c, err := uc.CreateCampaign(ctx, port.NewCampaign{
		Name: "Spring launch",
		Rules: domain.CampaignRules{
			BrandContext: domain.BrandContext{BrandName: " Hello To Natural "},
			Offer:        domain.Offer{Details: "a serum trio"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OfferGifted, c.OfferType)
	assert.Equal(t, "Hello To Natural", c.Rules.BrandContext.BrandName)

	_, err = uc.CreateCampaign(ctx, port.NewCampaign{Name: "x", OfferType: "barter"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.CreateCampaign(ctx, port.NewCampaign{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	all, err := uc.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
