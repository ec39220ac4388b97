package risk

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/harborwatch/harborwatch/config"
	"github.com/harborwatch/harborwatch/internal/telemetry"
	"github.com/harborwatch/harborwatch/models"
	"github.com/harborwatch/harborwatch/provider"
)

type stubLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   [][]provider.Message
	opts    []map[string]interface{}
}

func (s *stubLLM) Complete(ctx context.Context, messages []provider.Message, options map[string]interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.calls)
	s.calls = append(s.calls, messages)
	s.opts = append(s.opts, options)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("unexpected completion call")
}

type stubNews struct {
	mu       sync.Mutex
	articles []models.NewsArticle
	err      error
	calls    int
}

func (s *stubNews) FetchRouteNews(ctx context.Context, route string) ([]models.NewsArticle, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.articles, s.err
}

type stubImages struct {
	mu     sync.Mutex
	images map[string]*models.PortImage
	err    error
	calls  int
}

func (s *stubImages) LookupPortImage(ctx context.Context, portName string) (*models.PortImage, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.images[portName], nil
}

func newTestOrchestrator(llm *stubLLM, news *stubNews, images *stubImages) *Orchestrator {
	logger := log.New(io.Discard, "", 0)
	tele := telemetry.NewTelemetry(config.TelemetryConfig{Enabled: false})
	return NewOrchestrator(llm, news, images, logger, tele)
}

const assessmentReply = `{
  "verdict": "At Risk",
  "score": 72,
  "reason": "Red Sea transit remains contested.",
  "factors": ["chokepoint congestion", "regional conflict", "weather season"],
  "shipping_line": "Maersk for schedule reliability on this lane.",
  "transit_time": "28-32 days",
  "transhipment": {"count": 1, "ports": ["Singapore"]},
  "route_overview": "Departs Shanghai, crosses the Indian Ocean via Singapore, transits Suez to Rotterdam.",
  "news_used": true
}`

func TestExtractPorts(t *testing.T) {
	llm := &stubLLM{replies: []string{"```json\n{\"port1\": \"Shanghai\", \"port2\": \"Rotterdam\"}\n```"}}
	o := newTestOrchestrator(llm, &stubNews{}, &stubImages{})

	ports, err := o.ExtractPorts(context.Background(), "Shanghai to Rotterdam")
	if err != nil {
		t.Fatalf("ExtractPorts: %v", err)
	}
	if ports.Port1 != "Shanghai" || ports.Port2 != "Rotterdam" {
		t.Fatalf("unexpected ports %+v", ports)
	}
	if mt, ok := llm.opts[0]["max_tokens"].(int); !ok || mt != extractMaxTokens {
		t.Fatalf("extraction did not bound max_tokens: %v", llm.opts[0])
	}
	if !strings.Contains(llm.calls[0][0].Content, `"Shanghai to Rotterdam"`) {
		t.Fatalf("route missing from extraction prompt: %q", llm.calls[0][0].Content)
	}
}

func TestExtractPortsInvalidReply(t *testing.T) {
	llm := &stubLLM{replies: []string{"I am not sure which ports you mean."}}
	o := newTestOrchestrator(llm, &stubNews{}, &stubImages{})
	if _, err := o.ExtractPorts(context.Background(), "nowhere to nowhere"); err == nil {
		t.Fatal("expected error for non-JSON reply")
	}
}

func TestExtractPortsMissingField(t *testing.T) {
	llm := &stubLLM{replies: []string{`{"port1": "Shanghai", "port2": ""}`}}
	o := newTestOrchestrator(llm, &stubNews{}, &stubImages{})
	_, err := o.ExtractPorts(context.Background(), "Shanghai loop")
	if !errors.Is(err, models.ErrNoPorts) {
		t.Fatalf("expected ErrNoPorts, got %v", err)
	}
}

func TestHeadlinesText(t *testing.T) {
	if got := HeadlinesText(nil); got != "No recent news found." {
		t.Fatalf("unexpected sentinel %q", got)
	}
	got := HeadlinesText([]models.NewsArticle{
		{Title: "Canal reopens", Date: "2026-08-30"},
		{Title: "Rates climb", Date: "2026-08-29"},
	})
	want := "- Canal reopens (2026-08-30)\n- Rates climb (2026-08-29)"
	if got != want {
		t.Fatalf("unexpected headlines:\n%q\nwant\n%q", got, want)
	}
}

func TestAssessFullExample(t *testing.T) {
	llm := &stubLLM{replies: []string{
		`{"port1": "Shanghai", "port2": "Rotterdam"}`,
		"```json\n" + assessmentReply + "\n```",
	}}
	news := &stubNews{articles: []models.NewsArticle{
		{Title: "Canal reopens", Date: "2026-08-30", URL: "https://e.com/1", Source: "Wire"},
		{Title: "Rates climb", Date: "2026-08-29", URL: "https://e.com/2", Source: "Wire"},
	}}
	images := &stubImages{images: map[string]*models.PortImage{
		"Shanghai": {URL: "https://upload.wikimedia.org/shanghai.jpg", Credit: "Wikipedia", CreditLink: "https://en.wikipedia.org/wiki/Port%20of%20Shanghai"},
		// Rotterdam intentionally absent: lookup yields nil image.
	}}
	o := newTestOrchestrator(llm, news, images)

	resp, err := o.Assess(context.Background(), "Shanghai to Rotterdam")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if resp.Verdict != "At Risk" || resp.Score != 72 {
		t.Fatalf("unexpected verdict/score: %s/%d", resp.Verdict, resp.Score)
	}
	if len(resp.Factors) != 3 {
		t.Fatalf("expected 3 factors, got %d", len(resp.Factors))
	}
	if len(resp.NewsArticles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(resp.NewsArticles))
	}
	if resp.PortImages.Port1 == nil || resp.PortImages.Port1.Name != "Shanghai" || resp.PortImages.Port1.Image == nil {
		t.Fatalf("unexpected port1 slot: %+v", resp.PortImages.Port1)
	}
	if resp.PortImages.Port2 == nil || resp.PortImages.Port2.Name != "Rotterdam" || resp.PortImages.Port2.Image != nil {
		t.Fatalf("unexpected port2 slot: %+v", resp.PortImages.Port2)
	}
	if !strings.Contains(resp.Headlines, "- Canal reopens (2026-08-30)") {
		t.Fatalf("headline bullets missing: %q", resp.Headlines)
	}
	// The assessment prompt embeds the rendered headline bullets.
	assessPrompt := llm.calls[1][0].Content
	if !strings.Contains(assessPrompt, "- Rates climb (2026-08-29)") {
		t.Fatalf("assessment prompt missing headlines: %q", assessPrompt)
	}
	if images.calls != 2 {
		t.Fatalf("expected 2 image lookups, got %d", images.calls)
	}
}

func TestAssessDegradesWithoutPorts(t *testing.T) {
	llm := &stubLLM{
		replies: []string{"", assessmentReply},
		errs:    []error{errors.New("model unavailable")},
	}
	images := &stubImages{}
	o := newTestOrchestrator(llm, &stubNews{}, images)

	resp, err := o.Assess(context.Background(), "Shanghai to Rotterdam")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if resp.PortImages.Port1 != nil || resp.PortImages.Port2 != nil {
		t.Fatalf("expected nil port slots, got %+v", resp.PortImages)
	}
	if images.calls != 0 {
		t.Fatalf("image lookups must be skipped without ports, got %d", images.calls)
	}
}

func TestAssessDegradesWithoutNews(t *testing.T) {
	llm := &stubLLM{replies: []string{
		`{"port1": "Shanghai", "port2": "Rotterdam"}`,
		assessmentReply,
	}}
	news := &stubNews{err: errors.New("newsapi down")}
	o := newTestOrchestrator(llm, news, &stubImages{})

	resp, err := o.Assess(context.Background(), "Shanghai to Rotterdam")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if resp.Headlines != "No recent news found." {
		t.Fatalf("expected sentinel headlines, got %q", resp.Headlines)
	}
	if resp.NewsArticles == nil || len(resp.NewsArticles) != 0 {
		t.Fatalf("expected empty article list, got %#v", resp.NewsArticles)
	}
	if !strings.Contains(llm.calls[1][0].Content, "No recent news found.") {
		t.Fatalf("sentinel missing from assessment prompt")
	}
}

func TestAssessMalformedAssessmentReply(t *testing.T) {
	llm := &stubLLM{replies: []string{
		`{"port1": "Shanghai", "port2": "Rotterdam"}`,
		`{"verdict": "At Risk", "score":`,
	}}
	o := newTestOrchestrator(llm, &stubNews{}, &stubImages{})
	if _, err := o.Assess(context.Background(), "Shanghai to Rotterdam"); err == nil {
		t.Fatal("expected error for truncated assessment JSON")
	}
}

func TestAssessCompletionFailure(t *testing.T) {
	llm := &stubLLM{
		replies: []string{`{"port1": "A", "port2": "B"}`, ""},
		errs:    []error{nil, errors.New("model unavailable")},
	}
	o := newTestOrchestrator(llm, &stubNews{}, &stubImages{})
	if _, err := o.Assess(context.Background(), "A to B"); err == nil {
		t.Fatal("expected error when the assessment call fails")
	}
}

func TestChatReplaysContextAndHistory(t *testing.T) {
	llm := &stubLLM{replies: []string{"Expect delays of 3-5 days."}}
	o := newTestOrchestrator(llm, &stubNews{}, &stubImages{})

	reply, err := o.Chat(context.Background(), ChatRequest{
		Route: "Shanghai to Rotterdam",
		Assessment: models.Assessment{
			Verdict:      "At Risk",
			Score:        72,
			Reason:       "Contested transit.",
			Factors:      []string{"conflict", "congestion", "weather"},
			Transhipment: models.Transhipment{Count: 1, Ports: []string{"Singapore"}},
			Headlines:    "- Canal reopens (2026-08-30)",
		},
		History: []models.ChatTurn{
			{Role: "user", Content: "Which leg is riskiest?"},
			{Role: "assistant", Content: "The Red Sea leg."},
		},
		UserMessage: "How long are current delays?",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "Expect delays of 3-5 days." {
		t.Fatalf("reply not returned verbatim: %q", reply)
	}

	msgs := llm.calls[0]
	if len(msgs) != 5 {
		t.Fatalf("expected primer+ack+2 history+message = 5 turns, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || !strings.Contains(msgs[0].Content, "Risk Score: 72/100") {
		t.Fatalf("primer malformed: %+v", msgs[0])
	}
	if !strings.Contains(msgs[0].Content, "Transhipment Ports: Singapore") {
		t.Fatalf("transhipment missing from primer: %q", msgs[0].Content)
	}
	// Unset optional fields fall back to N/A.
	if !strings.Contains(msgs[0].Content, "Best Shipping Line: N/A") {
		t.Fatalf("expected N/A fallback in primer: %q", msgs[0].Content)
	}
	if msgs[1].Role != "assistant" || !strings.Contains(msgs[1].Content, "At Risk with a risk score of 72/100") {
		t.Fatalf("ack malformed: %+v", msgs[1])
	}
	if msgs[2].Content != "Which leg is riskiest?" || msgs[3].Content != "The Red Sea leg." {
		t.Fatalf("history not replayed in order: %+v", msgs[2:4])
	}
	if msgs[4].Role != "user" || msgs[4].Content != "How long are current delays?" {
		t.Fatalf("new message not last: %+v", msgs[4])
	}
}

func TestChatCompletionFailure(t *testing.T) {
	llm := &stubLLM{errs: []error{errors.New("model unavailable")}}
	o := newTestOrchestrator(llm, &stubNews{}, &stubImages{})
	if _, err := o.Chat(context.Background(), ChatRequest{Route: "A to B", UserMessage: "hi"}); err == nil {
		t.Fatal("expected error when the chat call fails")
	}
}

func TestJoin2IsolatesBranchFailure(t *testing.T) {
	a, b := join2(context.Background(),
		func(ctx context.Context) (int, error) { return 7, nil },
		func(ctx context.Context) (string, error) { return "", errors.New("boom") },
	)
	if a.Err != nil || a.Val != 7 {
		t.Fatalf("healthy branch affected: %+v", a)
	}
	if b.Err == nil {
		t.Fatal("failing branch lost its error")
	}
}
