package risk

import (
	"fmt"
	"strings"
	"text/template"
)

// Prompts are fixed templates plus typed parameters so that
// user-controlled route text is only ever substituted into known slots,
// and so tests can render them against fixtures.

var extractionPromptTmpl = template.Must(template.New("extraction").Parse(
	`Extract the two main port or location names from this shipping route: "{{.Route}}"

Respond with raw JSON only. No markdown, no extra text:
{"port1": "first port name", "port2": "second port name"}`))

type extractionParams struct {
	Route string
}

var assessmentPromptTmpl = template.Must(template.New("assessment").Parse(
	`You are a maritime shipping expert and risk analyst. Assess the following shipping route based on your knowledge AND the latest real-time news headlines provided below.

Route: {{.Route}}

Latest News Headlines:
{{.Headlines}}

Based on both your knowledge and these headlines, provide a full assessment.

Respond with raw JSON only. No markdown, no code blocks, no extra text. Exactly this structure:
{
  "verdict": "Safe" or "At Risk",
  "score": <number 0-100>,
  "reason": "2-3 sentence explanation",
  "factors": ["factor 1", "factor 2", "factor 3"],
  "shipping_line": "Best shipping line to use on this route and why in one sentence",
  "transit_time": "Approximate transit time e.g. 14-18 days",
  "transhipment": {
    "count": <number of transhipment ports>,
    "ports": ["port 1", "port 2"]
  },
  "route_overview": "A 2-sentence description of the full route path from origin to destination including key waypoints",
  "news_used": true
}`))

type assessmentParams struct {
	Route     string
	Headlines string
}

var chatPrimerTmpl = template.Must(template.New("chatPrimer").Parse(
	`You are a maritime shipping risk analyst assistant. The user has just assessed this shipping route:

Route: {{.Route}}
Verdict: {{.Verdict}}
Risk Score: {{.Score}}/100
Reason: {{.Reason}}
Risk Factors: {{.Factors}}
Best Shipping Line: {{.ShippingLine}}
Transit Time: {{.TransitTime}}
Transhipment Ports: {{.TranshipmentPorts}}
Route Overview: {{.RouteOverview}}
Latest News Used: {{.Headlines}}

The user will now ask follow-up questions about this route. Be concise, helpful, and professional.`))

type chatPrimerParams struct {
	Route             string
	Verdict           string
	Score             int
	Reason            string
	Factors           string
	ShippingLine      string
	TransitTime       string
	TranshipmentPorts string
	RouteOverview     string
	Headlines         string
}

var chatAckTmpl = template.Must(template.New("chatAck").Parse(
	`Understood. I've assessed the {{.Route}} route as {{.Verdict}} with a risk score of {{.Score}}/100. I'm ready to answer any follow-up questions.`))

type chatAckParams struct {
	Route   string
	Verdict string
	Score   int
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return b.String(), nil
}
