package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/leadpilot/internal/pkg/httputil"
	"github.com/ignite/leadpilot/internal/service/campaign"
)

// writeCampaignErr maps campaign service errors onto HTTP statuses.
func writeCampaignErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, campaign.ErrNotEnrolled):
		httputil.NotFound(w, "lead not enrolled in campaign")
	case errors.Is(err, campaign.ErrInvalidTransition):
		httputil.Conflict(w, "operation not allowed in the campaign's current status")
	case errors.Is(err, campaign.ErrMissingWebhookURL),
		errors.Is(err, campaign.ErrNoActiveSteps),
		errors.Is(err, campaign.ErrNoLeads):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	campaigns, total, err := h.Campaigns.List(r.Context(), campaign.ListFilter{
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"campaigns": campaigns, "total": total})
}

func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.Campaigns.Create(r.Context(), in)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, c)
}

func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.Campaigns.Get(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.OK(w, c)
}

func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.UpdateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.Campaigns.Update(r.Context(), chi.URLParam(r, "campaignID"), in)
	if err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.OK(w, c)
}

func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.Campaigns.Delete(r.Context(), chi.URLParam(r, "campaignID")); err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) StartCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	if err := h.Campaigns.Start(r.Context(), id); err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "active"})
}

func (h *Handlers) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	if err := h.Campaigns.Pause(r.Context(), id); err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "paused"})
}

// CampaignHistory returns recent webhook dispatch attempts, newest first.
func (h *Handlers) CampaignHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.History.Recent(r.Context(), id, limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"history": entries})
}

type enrollRequest struct {
	LeadID string `json:"lead_id"`
	Email  string `json:"email"`
}

func (h *Handlers) EnrollLead(w http.ResponseWriter, r *http.Request) {
	var in enrollRequest
	if !httputil.Decode(w, r, &in) {
		return
	}
	if in.LeadID == "" || in.Email == "" {
		httputil.BadRequest(w, "lead_id and email are required")
		return
	}
	added, err := h.Campaigns.Enroll(r.Context(), chi.URLParam(r, "campaignID"), in.LeadID, in.Email)
	if err != nil {
		writeCampaignErr(w, err)
		return
	}
	if !added {
		// Re-enrolling is a no-op, reported as success.
		httputil.OK(w, map[string]bool{"enrolled": true, "created": false})
		return
	}
	httputil.Created(w, map[string]bool{"enrolled": true, "created": true})
}

func (h *Handlers) UnenrollLead(w http.ResponseWriter, r *http.Request) {
	err := h.Campaigns.Unenroll(r.Context(), chi.URLParam(r, "campaignID"), chi.URLParam(r, "leadID"))
	if err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.NoContent(w)
}

func (h *Handlers) PauseEnrollment(w http.ResponseWriter, r *http.Request) {
	h.setEnrollmentPaused(w, r, true)
}

func (h *Handlers) ResumeEnrollment(w http.ResponseWriter, r *http.Request) {
	h.setEnrollmentPaused(w, r, false)
}

func (h *Handlers) setEnrollmentPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	err := h.Campaigns.SetLeadPaused(r.Context(), chi.URLParam(r, "campaignID"), chi.URLParam(r, "leadID"), paused)
	if err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.OK(w, map[string]bool{"paused": paused})
}
