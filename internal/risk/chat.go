package risk

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborwatch/harborwatch/models"
	"github.com/harborwatch/harborwatch/provider"
)

// ChatRequest carries everything needed for a follow-up turn. The
// server stores nothing: the assessment context and the whole prior
// history arrive with every request.
type ChatRequest struct {
	Route       string
	Assessment  models.Assessment
	History     []models.ChatTurn
	UserMessage string
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// Chat replays the assessment context as a priming user/assistant pair,
// appends the caller's history and the new message, and returns the
// model's next reply verbatim.
func (o *Orchestrator) Chat(ctx context.Context, req ChatRequest) (string, error) {
	a := req.Assessment

	transhipment := "N/A"
	if len(a.Transhipment.Ports) > 0 {
		transhipment = strings.Join(a.Transhipment.Ports, ", ")
	}
	primer, err := render(chatPrimerTmpl, chatPrimerParams{
		Route:             req.Route,
		Verdict:           a.Verdict,
		Score:             a.Score,
		Reason:            a.Reason,
		Factors:           strings.Join(a.Factors, ", "),
		ShippingLine:      orNA(a.ShippingLine),
		TransitTime:       orNA(a.TransitTime),
		TranshipmentPorts: transhipment,
		RouteOverview:     orNA(a.RouteOverview),
		Headlines:         orNA(a.Headlines),
	})
	if err != nil {
		return "", err
	}
	ack, err := render(chatAckTmpl, chatAckParams{Route: req.Route, Verdict: a.Verdict, Score: a.Score})
	if err != nil {
		return "", err
	}

	messages := make([]provider.Message, 0, len(req.History)+3)
	messages = append(messages,
		provider.Message{Role: "user", Content: primer},
		provider.Message{Role: "assistant", Content: ack},
	)
	for _, turn := range req.History {
		messages = append(messages, provider.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, provider.Message{Role: "user", Content: req.UserMessage})

	reply, err := o.llm.Complete(ctx, messages, nil)
	if err != nil {
		o.telemetry.RecordOutboundFailure("llm_chat")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return reply, nil
}
