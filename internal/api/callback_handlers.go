package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/leadpilot/internal/pkg/httputil"
	"github.com/ignite/leadpilot/internal/service/campaign"
)

// Callback handlers receive the counterparty's asynchronous notifications
// and map them onto enrollment transitions. All of them are idempotent:
// redelivered callbacks never double-count stats or re-advance steps.

func (h *Handlers) CallbackLogSend(w http.ResponseWriter, r *http.Request) {
	var in campaign.RecordSendInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	err := h.Campaigns.RecordSend(r.Context(), chi.URLParam(r, "campaignID"), chi.URLParam(r, "leadID"), in)
	if err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "recorded"})
}

func (h *Handlers) CallbackReply(w http.ResponseWriter, r *http.Request) {
	err := h.Campaigns.RecordReply(r.Context(), chi.URLParam(r, "campaignID"), chi.URLParam(r, "leadID"))
	if err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "recorded"})
}

func (h *Handlers) CallbackBounce(w http.ResponseWriter, r *http.Request) {
	err := h.Campaigns.RecordBounce(r.Context(), chi.URLParam(r, "campaignID"), chi.URLParam(r, "leadID"))
	if err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "recorded"})
}

func (h *Handlers) CallbackOptOut(w http.ResponseWriter, r *http.Request) {
	err := h.Campaigns.RecordOptOut(r.Context(), chi.URLParam(r, "campaignID"), chi.URLParam(r, "leadID"))
	if err != nil {
		writeCampaignErr(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "recorded"})
}
