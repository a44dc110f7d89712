package sequencer

import (
	"fmt"
	"strings"

	"github.com/ignite/leadpilot/internal/domain"
)

// Render substitutes the fixed {{token}} set in a template with values from
// the lead record. Missing values render as empty strings; tokens outside
// the fixed set are left verbatim. No conditionals, no escaping: the
// counterparty performs real personalization and the rendered text is the
// fallback/preview.
func Render(template string, lead *domain.Lead) string {
	if lead == nil {
		return template
	}
	dealValue := ""
	if lead.DealValue != 0 {
		dealValue = fmt.Sprintf("$%.2f", lead.DealValue)
	}
	r := strings.NewReplacer(
		"{{contact_name}}", lead.ContactName,
		"{{first_name}}", lead.FirstName,
		"{{company}}", lead.Company,
		"{{industry}}", lead.Industry,
		"{{website}}", lead.Website,
		"{{email}}", lead.Email,
		"{{deal_value}}", dealValue,
		"{{address}}", lead.Address,
		"{{phone}}", lead.Phone,
	)
	return r.Replace(template)
}

// RenderStep renders a step's subject and body templates for a lead.
func RenderStep(step *domain.Step, lead *domain.Lead) (subject, body string) {
	return Render(step.SubjectTemplate, lead), Render(step.BodyTemplate, lead)
}
