package httpadapter

import (
	"net/http"
)

func (h *Handler) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg, err := h.outreach.GetMessage(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMessageResponse(*msg))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg, err := h.outreach.Approve(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMessageResponse(*msg))
}

// handleSend delivers an approved message. A gateway failure answers 502
// and leaves the message approved so the call can be repeated.
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	msg, err := h.outreach.Send(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMessageResponse(*msg))
}
