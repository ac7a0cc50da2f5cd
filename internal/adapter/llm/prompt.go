package llm

import (
	"fmt"
	"strings"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

// priorMessageLimit caps how much thread history goes into a prompt.
const priorMessageLimit = 6

func buildPrompt(in port.DraftContext) string {
	f := factsFor(in)
	var b strings.Builder

	fmt.Fprintf(&b, "Brand: %s\n", f.brand)
	if f.site != "" {
		fmt.Fprintf(&b, "Website: %s\n", f.site)
	}
	if f.voice != "" {
		fmt.Fprintf(&b, "Voice: %s\n", f.voice)
	}
	fmt.Fprintf(&b, "Offer: %s (%s)\n", f.details, f.offerType)
	fmt.Fprintf(&b, "Call to action: %s\n", f.cta)
	for _, c := range in.Campaign.Rules.Constraints {
		fmt.Fprintf(&b, "Constraint: %s\n", c)
	}

	b.WriteString("\nCreator:\n")
	fmt.Fprintf(&b, "Name: %s\n", f.display)
	fmt.Fprintf(&b, "Platform: %s\n", f.platform)
	fmt.Fprintf(&b, "Handle: %s\n", f.handle)
	if f.bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", f.bio)
	}
	if in.Influencer.Followers != nil {
		fmt.Fprintf(&b, "Followers: %d\n", *in.Influencer.Followers)
	}
	if len(in.Influencer.NicheTags) > 0 {
		fmt.Fprintf(&b, "Niches: %s\n", strings.Join(in.Influencer.NicheTags, ", "))
	}

	prior := in.PriorMessages
	if len(prior) > priorMessageLimit {
		prior = prior[len(prior)-priorMessageLimit:]
	}
	if len(prior) > 0 {
		b.WriteString("\nEarlier messages, oldest first:\n")
		for _, m := range prior {
			fmt.Fprintf(&b, "[%s %s] %s\n%s\n", m.Direction, m.Status, m.Subject, m.Body)
		}
	}

	b.WriteString("\n")
	if in.Kind == domain.KindFollowUp {
		b.WriteString("Write a brief, polite follow-up to the last email we sent. The creator has not replied.")
	} else {
		b.WriteString("Write the first outreach email to this creator.")
	}
	return b.String()
}

// parseCompletion splits a "Subject: ... Body: ..." answer. Text that does
// not follow the format becomes the body under the fallback subject.
func parseCompletion(text, fallback string) (subject, body string) {
	subject = fallback
	rest := text
	if first, after, ok := strings.Cut(text, "\n"); ok || strings.HasPrefix(text, "Subject:") {
		if s, found := strings.CutPrefix(strings.TrimSpace(first), "Subject:"); found {
			if s = strings.TrimSpace(s); s != "" {
				subject = s
			}
			rest = after
		}
	}
	rest = strings.TrimSpace(rest)
	if b, found := strings.CutPrefix(rest, "Body:"); found {
		rest = b
	}
	return subject, strings.TrimSpace(rest)
}
