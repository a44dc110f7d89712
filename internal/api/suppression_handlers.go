package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/pkg/httputil"
	"github.com/ignite/leadpilot/internal/service/suppression"
)

func (h *Handlers) ListSuppressions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	entries, total, err := h.Suppressions.List(r.Context(), limit, offset)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"suppressions": entries, "total": total})
}

type suppressRequest struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

func (h *Handlers) AddSuppression(w http.ResponseWriter, r *http.Request) {
	var in suppressRequest
	if !httputil.Decode(w, r, &in) {
		return
	}
	reason := domain.SuppressionReason(in.Reason)
	if reason == "" {
		reason = domain.ReasonManual
	}
	err := h.Suppressions.Suppress(r.Context(), in.Email, reason, domain.SourceAdmin)
	if err != nil {
		if errors.Is(err, suppression.ErrInvalidEmail) {
			httputil.BadRequest(w, "invalid email address")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, map[string]string{"status": "suppressed"})
}

func (h *Handlers) RemoveSuppression(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		httputil.BadRequest(w, "invalid email parameter")
		return
	}
	if err := h.Suppressions.Remove(r.Context(), email); err != nil {
		if errors.Is(err, suppression.ErrNotFound) {
			httputil.NotFound(w, "suppression entry not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}
