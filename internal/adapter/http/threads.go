package httpadapter

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

func (h *Handler) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	influencerID, err := parseID("influencer_id", req.InfluencerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	campaignID, err := parseID("campaign_id", req.CampaignID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	th, err := h.outreach.CreateThread(r.Context(), influencerID, campaignID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toThreadResponse(*th))
}

func (h *Handler) handleCreateThreads(w http.ResponseWriter, r *http.Request) {
	var req createThreadsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	campaignID, err := parseID("campaign_id", req.CampaignID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.InfluencerIDs))
	for _, raw := range req.InfluencerIDs {
		id, err := parseID("influencer_ids", raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		ids = append(ids, id)
	}
	res, err := h.outreach.CreateThreads(r.Context(), campaignID, ids)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bulkResponse{
		Created:            res.Created,
		SkippedExisting:    res.SkippedExisting,
		MissingInfluencers: res.MissingInfluencers,
		Threads:            mapSlice(res.Threads, toThreadResponse),
	})
}

// handleListThreads accepts optional stage and limit query parameters.
func (h *Handler) handleListThreads(w http.ResponseWriter, r *http.Request) {
	var filter port.ThreadFilter
	if v := r.URL.Query().Get("stage"); v != "" {
		stage, err := domain.ParseStage(v)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		filter.Stage = stage
	}
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	filter.Limit = limit

	items, err := h.outreach.ListThreads(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapSlice(items, toThreadResponse))
}

func (h *Handler) handleGetThread(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	th, err := h.outreach.GetThread(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toThreadResponse(*th))
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msgs, err := h.outreach.ListMessages(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapSlice(msgs, toMessageResponse))
}

func (h *Handler) handleRequestDraft(w http.ResponseWriter, r *http.Request) {
	h.draft(w, r, h.outreach.RequestDraft)
}

func (h *Handler) handleRequestFollowUp(w http.ResponseWriter, r *http.Request) {
	h.draft(w, r, h.outreach.RequestFollowUp)
}

func (h *Handler) draft(w http.ResponseWriter, r *http.Request, request func(ctx context.Context, id uuid.UUID) (*domain.Message, error)) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg, err := request(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toMessageResponse(*msg))
}

// handleSimulateInbound records a reply as if it had arrived by email. It is
// only reachable when test endpoints are enabled.
func (h *Handler) handleSimulateInbound(w http.ResponseWriter, r *http.Request) {
	if !h.testEndpoints {
		h.writeJSON(w, http.StatusForbidden, errorResponse{Error: "test endpoints are disabled"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req inboundReplyRequest
	if err = decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	reply := port.InboundReply{Subject: req.Subject, Body: req.Body}
	if req.ReceivedAt != nil {
		reply.ReceivedAt = *req.ReceivedAt
	}
	msg, err := h.outreach.RecordInboundReply(r.Context(), id, reply)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toMessageResponse(*msg))
}
