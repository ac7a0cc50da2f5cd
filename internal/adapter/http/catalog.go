package httpadapter

import (
	"net/http"
	"strconv"

	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
)

func (h *Handler) handleCreateInfluencer(w http.ResponseWriter, r *http.Request) {
	var req createInfluencerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	inf, err := h.catalog.CreateInfluencer(r.Context(), req.toPort())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toInfluencerResponse(*inf))
}

// handleListInfluencers accepts optional platform, has_email and limit
// query parameters.
func (h *Handler) handleListInfluencers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := port.InfluencerFilter{Platform: q.Get("platform")}
	if v := q.Get("has_email"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, r, &domain.ValidationError{Field: "has_email", Reason: "must be a boolean"})
			return
		}
		filter.HasEmail = &b
	}
	limit, err := queryLimit(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	filter.Limit = limit

	items, err := h.catalog.ListInfluencers(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapSlice(items, toInfluencerResponse))
}

func (h *Handler) handleGetInfluencer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	inf, err := h.catalog.GetInfluencer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toInfluencerResponse(*inf))
}

func (h *Handler) handleRefreshProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req profileUpdateRequest
	if err = decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	inf, err := h.catalog.RefreshProfile(r.Context(), id, req.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toInfluencerResponse(*inf))
}

func (h *Handler) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.catalog.CreateCampaign(r.Context(), port.NewCampaign{
		Name:      req.Name,
		OfferType: req.OfferType,
		Rules:     req.Rules,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toCampaignResponse(*c))
}

func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListCampaigns(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, mapSlice(items, toCampaignResponse))
}

func (h *Handler) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.catalog.GetCampaign(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCampaignResponse(*c))
}

func queryLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
	}
	return n, nil
}
