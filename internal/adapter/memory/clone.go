package memory

import (
	"slices"
	"time"

	"creator-outreach/internal/core/domain"
)

// The store hands out copies so callers can never mutate stored state
// outside a lock.

func cloneThread(t domain.Thread) domain.Thread {
	t.LastContactAt = cloneTime(t.LastContactAt)
	t.NextFollowUpAt = cloneTime(t.NextFollowUpAt)
	return t
}

func cloneMessage(m domain.Message) domain.Message {
	if m.ProviderMsgID != nil {
		id := *m.ProviderMsgID
		m.ProviderMsgID = &id
	}
	m.ApprovedAt = cloneTime(m.ApprovedAt)
	m.SentAt = cloneTime(m.SentAt)
	return m
}

func cloneInfluencer(i domain.Influencer) domain.Influencer {
	if i.Followers != nil {
		v := *i.Followers
		i.Followers = &v
	}
	if i.EngagementRate != nil {
		v := *i.EngagementRate
		i.EngagementRate = &v
	}
	i.NicheTags = slices.Clone(i.NicheTags)
	return i
}

func cloneCampaign(c domain.Campaign) domain.Campaign {
	c.Rules.Constraints = slices.Clone(c.Rules.Constraints)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
