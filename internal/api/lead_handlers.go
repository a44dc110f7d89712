package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/leadpilot/internal/pkg/httputil"
	"github.com/ignite/leadpilot/internal/service/lead"
)

func writeLeadErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lead.ErrNotFound):
		httputil.NotFound(w, "lead not found")
	case errors.Is(err, lead.ErrInvalidEmail):
		httputil.BadRequest(w, "invalid email address")
	default:
		httputil.InternalError(w, err)
	}
}

func (h *Handlers) ListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	leads, total, err := h.Leads.List(r.Context(), lead.ListFilter{
		Company: q.Get("company"),
		Search:  q.Get("search"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"leads": leads, "total": total})
}

func (h *Handlers) CreateLead(w http.ResponseWriter, r *http.Request) {
	var in lead.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	l, err := h.Leads.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, lead.ErrInvalidEmail) {
			httputil.BadRequest(w, "invalid email address")
			return
		}
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, l)
}

func (h *Handlers) GetLead(w http.ResponseWriter, r *http.Request) {
	l, err := h.Leads.Get(r.Context(), chi.URLParam(r, "leadID"))
	if err != nil {
		writeLeadErr(w, err)
		return
	}
	httputil.OK(w, l)
}

func (h *Handlers) UpdateLead(w http.ResponseWriter, r *http.Request) {
	var in lead.UpdateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	l, err := h.Leads.Update(r.Context(), chi.URLParam(r, "leadID"), in)
	if err != nil {
		writeLeadErr(w, err)
		return
	}
	httputil.OK(w, l)
}

func (h *Handlers) DeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.Leads.Delete(r.Context(), chi.URLParam(r, "leadID")); err != nil {
		writeLeadErr(w, err)
		return
	}
	httputil.NoContent(w)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handlers) AddLeadNote(w http.ResponseWriter, r *http.Request) {
	var in noteRequest
	if !httputil.Decode(w, r, &in) {
		return
	}
	l, err := h.Leads.AddNote(r.Context(), chi.URLParam(r, "leadID"), in.Note)
	if err != nil {
		if errors.Is(err, lead.ErrNotFound) {
			httputil.NotFound(w, "lead not found")
			return
		}
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.OK(w, l)
}
