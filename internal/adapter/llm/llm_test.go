package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

func draftContext() port.DraftContext {
	return port.DraftContext{
		Kind: domain.KindInitial,
		Campaign: domain.Campaign{
			Name:      "Spring launch",
			OfferType: domain.OfferGifted,
			Rules: domain.CampaignRules{
				BrandContext: domain.BrandContext{BrandName: "Hello To Natural", Site: "https://htn.example"},
				Offer:        domain.Offer{Details: "our serum trio"},
			},
		},
		Influencer: domain.Influencer{
			Platform:    "instagram",
			Handle:      "glowwithmia",
			DisplayName: "Mia",
			Bio:         "Simple skincare routines for sensitive skin",
		},
	}
}

func TestMockGeneratorIsDeterministic(t *testing.T) {
	g := NewMockGenerator()
	ctx := context.Background()

	a, err := g.Generate(ctx, draftContext())
	require.NoError(t, err)
	b, err := g.Generate(ctx, draftContext())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, domain.ModeMock, a.Mode)
	tag := stableTag("Hello To Natural", "glowwithmia", "instagram", "gifted", "our serum trio")
	assert.Len(t, tag, 8)
	assert.Equal(t, "Collab idea for Mia (gifted) ["+tag+"]", a.Subject)
}

func TestMockGeneratorInitialBody(t *testing.T) {
	d, err := NewMockGenerator().Generate(context.Background(), draftContext())
	require.NoError(t, err)

	lines := strings.Split(d.Body, "\n")
	assert.Equal(t, "Hi Mia,", lines[0])
	assert.Contains(t, d.Body, "noticed you share about Simple skincare routines")
	assert.Contains(t, d.Body, "I'm reaching out from Hello To Natural.")
	assert.Contains(t, d.Body, "our serum trio as a gifted collab")
	assert.Contains(t, d.Body, defaultCTA)
	assert.Contains(t, d.Body, "Website: https://htn.example")
	assert.Contains(t, d.Body, optOutLine)
	assert.Equal(t, "— Hello To Natural Team", lines[len(lines)-1])
	assert.NotContains(t, d.Body, "\n\n")
}

func TestMockGeneratorDefaults(t *testing.T) {
	in := port.DraftContext{
		Kind:       domain.KindInitial,
		Influencer: domain.Influencer{Handle: "chef"},
	}
	d, err := NewMockGenerator().Generate(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(d.Subject, "Collab idea for chef (gifted) ["))
	assert.Contains(t, d.Body, "your social content")
	assert.Contains(t, d.Body, "a product set")
	assert.NotContains(t, d.Body, "Website:")
}

func TestMockGeneratorFollowUpReferencesLastSent(t *testing.T) {
	in := draftContext()
	in.Kind = domain.KindFollowUp
	in.PriorMessages = []domain.Message{
		{Direction: domain.DirectionOutbound, Status: domain.StatusSent, Subject: "Collab idea for Mia (gifted) [abcd1234]"},
	}

	d, err := NewMockGenerator().Generate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Re: Collab idea for Mia (gifted) [abcd1234]", d.Subject)
	assert.Contains(t, d.Body, "Collab idea for Mia (gifted) [abcd1234]")
	assert.Contains(t, d.Body, optOutLine)
}

func TestMockGeneratorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockGenerator().Generate(ctx, draftContext())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCompletion(t *testing.T) {
	cases := []struct {
		name        string
		text        string
		wantSubject string
		wantBody    string
	}{
		{"full format", "Subject: Hello Mia\nBody:\nHi Mia,\nLove your work.", "Hello Mia", "Hi Mia,\nLove your work."},
		{"inline body", "Subject: Hello\nBody: Hi there", "Hello", "Hi there"},
		{"no subject", "Hi Mia,\nLove your work.", "fallback", "Hi Mia,\nLove your work."},
		{"subject only", "Subject: Hello", "Hello", ""},
		{"blank subject", "Subject:\nBody:\nHi", "fallback", "Hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subject, body := parseCompletion(tc.text, "fallback")
			assert.Equal(t, tc.wantSubject, subject)
			assert.Equal(t, tc.wantBody, body)
		})
	}
}

func TestBuildPromptIncludesContext(t *testing.T) {
	in := draftContext()
	in.Campaign.Rules.Constraints = []string{"no discount codes"}
	in.Kind = domain.KindFollowUp
	in.PriorMessages = []domain.Message{
		{Direction: domain.DirectionOutbound, Status: domain.StatusSent, Subject: "First", Body: "first body"},
	}

	p := buildPrompt(in)
	assert.Contains(t, p, "Brand: Hello To Natural")
	assert.Contains(t, p, "Constraint: no discount codes")
	assert.Contains(t, p, "Handle: glowwithmia")
	assert.Contains(t, p, "[outbound sent] First")
	assert.Contains(t, p, "follow-up")
}
