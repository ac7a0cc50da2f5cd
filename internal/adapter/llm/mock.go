package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

const (
	defaultBrandName    = "Hello To Natural"
	defaultOfferDetails = "a product set"
	defaultCTA          = "If you're open, reply with your email + shipping info."
	optOutLine          = "If you're not open to collaborations right now, just reply “no thanks” and I won’t follow up."
	bioExcerptRunes     = 80
)

// MockGenerator writes drafts from templates. Its output depends only on
// the draft context, so repeated calls return identical text.
type MockGenerator struct{}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (g *MockGenerator) Generate(ctx context.Context, in port.DraftContext) (port.Draft, error) {
	if err := ctx.Err(); err != nil {
		return port.Draft{}, err
	}
	facts := factsFor(in)
	var subject, body string
	if in.Kind == domain.KindFollowUp {
		subject, body = mockFollowUp(facts, lastSentSubject(in.PriorMessages))
	} else {
		subject, body = mockInitial(facts)
	}
	return port.Draft{Subject: subject, Body: body, Mode: domain.ModeMock}, nil
}

// facts is the flattened view of a draft context the templates and the
// prompt builder read from.
type facts struct {
	brand     string
	site      string
	voice     string
	handle    string
	display   string
	platform  string
	bio       string
	offerType string
	details   string
	cta       string
}

func factsFor(in port.DraftContext) facts {
	rules := in.Campaign.Rules
	f := facts{
		brand:     orDefault(rules.BrandContext.BrandName, defaultBrandName),
		site:      strings.TrimSpace(rules.BrandContext.Site),
		voice:     strings.TrimSpace(rules.BrandContext.Voice),
		handle:    orDefault(in.Influencer.Handle, "there"),
		platform:  orDefault(in.Influencer.Platform, "social"),
		bio:       strings.TrimSpace(in.Influencer.Bio),
		offerType: orDefault(string(in.Campaign.OfferType), string(domain.OfferGifted)),
		details:   orDefault(rules.Offer.Details, defaultOfferDetails),
		cta:       orDefault(rules.Offer.CTA, defaultCTA),
	}
	f.display = orDefault(in.Influencer.DisplayName, f.handle)
	return f
}

// stableTag is a short content hash that lets a human spot identical
// drafts across threads.
func stableTag(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:8]
}

func mockInitial(f facts) (string, string) {
	tag := stableTag(f.brand, f.handle, f.platform, f.offerType, f.details)
	subject := fmt.Sprintf("Collab idea for %s (%s) [%s]", f.display, f.offerType, tag)

	firstLine := fmt.Sprintf("I came across your %s content and really enjoyed your vibe.", f.platform)
	if f.bio != "" {
		firstLine = fmt.Sprintf("I came across your %s and noticed you share about %s.", f.platform, truncateRunes(f.bio, bioExcerptRunes))
	}
	website := ""
	if f.site != "" {
		website = "Website: " + f.site
	}

	return subject, joinLines(
		fmt.Sprintf("Hi %s,", f.display),
		firstLine,
		fmt.Sprintf("I'm reaching out from %s.", f.brand),
		fmt.Sprintf("We’d love to offer you %s as a %s collab.", f.details, f.offerType),
		f.cta,
		website,
		optOutLine,
		fmt.Sprintf("— %s Team", f.brand),
	)
}

func mockFollowUp(f facts, previous string) (string, string) {
	subject := fmt.Sprintf("Following up: collab idea for %s", f.display)
	nudge := "Just bumping my earlier note to the top of your inbox."
	if previous != "" {
		subject = "Re: " + strings.TrimPrefix(previous, "Re: ")
		nudge = fmt.Sprintf("Just bumping my note “%s” to the top of your inbox.", previous)
	}
	return subject, joinLines(
		fmt.Sprintf("Hi %s,", f.display),
		nudge,
		fmt.Sprintf("The offer of %s from %s still stands.", f.details, f.brand),
		f.cta,
		optOutLine,
		fmt.Sprintf("— %s Team", f.brand),
	)
}

// lastSentSubject returns the subject of the most recent sent outbound
// message. Messages are ordered oldest first.
func lastSentSubject(msgs []domain.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Direction == domain.DirectionOutbound && m.Status == domain.StatusSent {
			return m.Subject
		}
	}
	return ""
}

func joinLines(lines ...string) string {
	kept := lines[:0]
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
