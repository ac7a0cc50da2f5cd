package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

// Seed inserts a demo campaign, a handful of influencers and one thread per
// influencer. It does nothing when a campaign already exists, so it is safe
// to call on every start.
func Seed(ctx context.Context, catalog port.CatalogUseCase, outreach port.OutreachUseCase) error {
	existing, err := catalog.ListCampaigns(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	camp, err := catalog.CreateCampaign(ctx, port.NewCampaign{
		Name:      "Spring skincare launch",
		OfferType: string(domain.OfferGifted),
		Rules: domain.CampaignRules{
			BrandContext: domain.BrandContext{
				BrandName: "Hello To Natural",
				Site:      "https://hellotonatural.example",
				Voice:     "warm, concise, no hype",
			},
			Offer: domain.Offer{
				Details: "our new botanical serum trio",
				CTA:     "If you're open, reply with your email + shipping info.",
			},
			Constraints: []string{"no discount codes", "mention the opt-out line"},
		},
	})
	if err != nil {
		return fmt.Errorf("seed campaign: %w", err)
	}

	followers := []int64{12400, 58000, 3100, 220000, 8700}
	platforms := []string{"instagram", "tiktok", "youtube"}
	ids := make([]uuid.UUID, 0, len(followers))
	for i, count := range followers {
		rate := 0.02 + float64(i)*0.01
		inf, err := catalog.CreateInfluencer(ctx, port.NewInfluencer{
			Platform:       platforms[i%len(platforms)],
			Handle:         fmt.Sprintf("creator%d", i+1),
			DisplayName:    fmt.Sprintf("Creator %d", i+1),
			ProfileURL:     fmt.Sprintf("https://social.example/creator%d", i+1),
			Email:          fmt.Sprintf("creator%d@example.com", i+1),
			Bio:            "Clean beauty, routines and honest reviews.",
			Followers:      &count,
			EngagementRate: &rate,
			NicheTags:      []string{"skincare", "wellness"},
		})
		if err != nil {
			return fmt.Errorf("seed influencer: %w", err)
		}
		ids = append(ids, inf.ID)
	}

	if _, err := outreach.CreateThreads(ctx, camp.ID, ids); err != nil {
		return fmt.Errorf("seed threads: %w", err)
	}
	return nil
}
