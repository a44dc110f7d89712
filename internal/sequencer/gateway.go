package sequencer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/leadpilot/internal/domain"
)

// DispatchResult is the gateway's interpretation of one webhook exchange.
type DispatchResult struct {
	Outcome domain.DispatchOutcome
	// Detail carries the failure message or HTTP status line for logging.
	Detail string
	// Subject, Body, and From are counterparty-supplied overrides of the
	// locally rendered text; empty when the counterparty sent none. They
	// affect only what the outreach record logs, never control flow.
	Subject string
	Body    string
	From    string
}

// dispatchPayload is the JSON body POSTed to the campaign webhook.
type dispatchPayload struct {
	Campaign struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"campaign"`
	Step struct {
		Number          int    `json:"number"`
		SubjectTemplate string `json:"subject_template"`
		BodyTemplate    string `json:"body_template"`
		Subject         string `json:"subject"`
		Body            string `json:"body"`
	} `json:"step"`
	Lead      *domain.Lead           `json:"lead"`
	History   []domain.MessageRecord `json:"message_history"`
	Callbacks struct {
		LogSend string `json:"log_send"`
		Reply   string `json:"reply"`
		Bounce  string `json:"bounce"`
		OptOut  string `json:"opt_out"`
	} `json:"callbacks"`
}

// webhookReply is the shape the counterparty may answer with. Any 2xx body
// that fails to parse as this is treated as a bare send confirmation.
type webhookReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from"`
}

// Gateway performs the outbound webhook call for a due (lead, step) pair.
// One call per tick, no internal retry: a transport error or failure reply
// simply leaves the pair eligible for the next tick.
type Gateway struct {
	client  *http.Client
	baseURL string // public base for counterparty callback URLs
}

func NewGateway(timeout time.Duration, publicBaseURL string) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		client:  &http.Client{Timeout: timeout},
		baseURL: publicBaseURL,
	}
}

// Dispatch POSTs the due pair to the campaign webhook and interprets the
// reply into one of four outcomes: transport_error (no HTTP response),
// http_error (non-2xx status), failed (counterparty reported an explicit
// failure), or sent (everything else, including unparseable 2xx bodies).
func (g *Gateway) Dispatch(ctx context.Context, c *domain.Campaign, step *domain.Step, lead *domain.Lead, subject, body string) *DispatchResult {
	payload := dispatchPayload{}
	payload.Campaign.ID = c.ID
	payload.Campaign.Name = c.Name
	payload.Step.Number = step.Number
	payload.Step.SubjectTemplate = step.SubjectTemplate
	payload.Step.BodyTemplate = step.BodyTemplate
	payload.Step.Subject = subject
	payload.Step.Body = body
	payload.Lead = lead
	payload.History = lead.MessageHistory
	base := fmt.Sprintf("%s/api/campaigns/%s/leads/%s/callbacks", g.baseURL, c.ID, lead.ID)
	payload.Callbacks.LogSend = base + "/log-send"
	payload.Callbacks.Reply = base + "/reply"
	payload.Callbacks.Bounce = base + "/bounce"
	payload.Callbacks.OptOut = base + "/opt-out"

	buf, err := json.Marshal(payload)
	if err != nil {
		return &DispatchResult{Outcome: domain.DispatchTransportError, Detail: fmt.Sprintf("marshal payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(buf))
	if err != nil {
		return &DispatchResult{Outcome: domain.DispatchTransportError, Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", "campaign_email_due")
	req.Header.Set("X-Campaign-ID", c.ID)
	req.Header.Set("X-Step-Number", strconv.Itoa(step.Number))

	resp, err := g.client.Do(req)
	if err != nil {
		return &DispatchResult{Outcome: domain.DispatchTransportError, Detail: err.Error()}
	}
	defer resp.Body.Close()

	// Bound the read; counterparty replies are small JSON documents.
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DispatchResult{Outcome: domain.DispatchHTTPError, Detail: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))}
	}

	var reply webhookReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		// 2xx with an unparseable body is a bare confirmation.
		return &DispatchResult{Outcome: domain.DispatchSent}
	}

	switch reply.Status {
	case "failed", "error":
		detail := reply.Message
		if detail == "" {
			detail = "counterparty reported " + reply.Status
		}
		return &DispatchResult{Outcome: domain.DispatchFailed, Detail: detail}
	}
	return &DispatchResult{
		Outcome: domain.DispatchSent,
		Subject: reply.Subject,
		Body:    reply.Body,
		From:    reply.From,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
