package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/harborwatch/harborwatch/internal/helpers"
	"github.com/harborwatch/harborwatch/internal/telemetry"
	"github.com/harborwatch/harborwatch/models"
	"github.com/harborwatch/harborwatch/provider"
)

const (
	extractMaxTokens = 100
	noNewsSentinel   = "No recent news found."
)

// NewsSource fetches recent articles for a route.
type NewsSource interface {
	FetchRouteNews(ctx context.Context, route string) ([]models.NewsArticle, error)
}

// ImageSource resolves a representative image for a port name.
type ImageSource interface {
	LookupPortImage(ctx context.Context, portName string) (*models.PortImage, error)
}

// Orchestrator composes news, port extraction and port imagery into a
// single route risk assessment. All collaborators are injected; the
// orchestrator itself holds no mutable state across requests.
type Orchestrator struct {
	llm       provider.Provider
	news      NewsSource
	images    ImageSource
	logger    *log.Logger
	telemetry *telemetry.Telemetry
}

func NewOrchestrator(llm provider.Provider, news NewsSource, images ImageSource, logger *log.Logger, tele *telemetry.Telemetry) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[RISK] ", log.LstdFlags)
	}
	return &Orchestrator{llm: llm, news: news, images: images, logger: logger, telemetry: tele}
}

// ExtractPorts asks the model for the two endpoint port names of the
// route. Callers must treat an error as "no ports identified", not as a
// fatal condition.
func (o *Orchestrator) ExtractPorts(ctx context.Context, route string) (*models.Ports, error) {
	prompt, err := render(extractionPromptTmpl, extractionParams{Route: route})
	if err != nil {
		return nil, err
	}
	reply, err := o.llm.Complete(ctx, []provider.Message{{Role: "user", Content: prompt}},
		map[string]interface{}{"max_tokens": extractMaxTokens})
	if err != nil {
		return nil, fmt.Errorf("port extraction completion: %w", err)
	}
	raw, err := helpers.ExtractJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("port extraction reply: %w", err)
	}
	var ports models.Ports
	if err := json.Unmarshal([]byte(raw), &ports); err != nil {
		return nil, fmt.Errorf("port extraction reply: %w", err)
	}
	if strings.TrimSpace(ports.Port1) == "" || strings.TrimSpace(ports.Port2) == "" {
		return nil, models.ErrNoPorts
	}
	return &ports, nil
}

// HeadlinesText renders articles as a bullet list for prompt embedding,
// or the fixed sentinel when there is no news.
func HeadlinesText(articles []models.NewsArticle) string {
	if len(articles) == 0 {
		return noNewsSentinel
	}
	lines := make([]string, 0, len(articles))
	for _, a := range articles {
		lines = append(lines, fmt.Sprintf("- %s (%s)", a.Title, a.Date))
	}
	return strings.Join(lines, "\n")
}

// Assess runs the full orchestration for one route: news and port
// extraction in parallel, then both port images in parallel, then a
// single assessment completion. News and port failures degrade; a
// failure of the assessment call or its parse is returned to the
// caller.
func (o *Orchestrator) Assess(ctx context.Context, route string) (*models.AssessmentResponse, error) {
	eventID := o.telemetry.NewEventID()

	newsBr, portsBr := join2(ctx,
		func(ctx context.Context) ([]models.NewsArticle, error) {
			return o.news.FetchRouteNews(ctx, route)
		},
		func(ctx context.Context) (*models.Ports, error) {
			return o.ExtractPorts(ctx, route)
		},
	)

	news := newsBr.Val
	if newsBr.Err != nil {
		o.logger.Printf("[%s] news fetch failed, continuing without news: %v", eventID, newsBr.Err)
		o.telemetry.RecordOutboundFailure("newsapi")
		news = nil
	}
	if news == nil {
		news = []models.NewsArticle{}
	}

	var portImages models.PortImages
	if portsBr.Err != nil {
		o.logger.Printf("[%s] port extraction failed, continuing without ports: %v", eventID, portsBr.Err)
		o.telemetry.RecordOutboundFailure("llm_extract")
	} else {
		ports := portsBr.Val
		img1Br, img2Br := join2(ctx,
			func(ctx context.Context) (*models.PortImage, error) {
				return o.images.LookupPortImage(ctx, ports.Port1)
			},
			func(ctx context.Context) (*models.PortImage, error) {
				return o.images.LookupPortImage(ctx, ports.Port2)
			},
		)
		if img1Br.Err != nil {
			o.logger.Printf("[%s] image lookup for %q failed: %v", eventID, ports.Port1, img1Br.Err)
			o.telemetry.RecordOutboundFailure("wikipedia")
			img1Br.Val = nil
		}
		if img2Br.Err != nil {
			o.logger.Printf("[%s] image lookup for %q failed: %v", eventID, ports.Port2, img2Br.Err)
			o.telemetry.RecordOutboundFailure("wikipedia")
			img2Br.Val = nil
		}
		portImages = models.PortImages{
			Port1: &models.PortSlot{Name: ports.Port1, Image: img1Br.Val},
			Port2: &models.PortSlot{Name: ports.Port2, Image: img2Br.Val},
		}
	}

	headlines := HeadlinesText(news)
	prompt, err := render(assessmentPromptTmpl, assessmentParams{Route: route, Headlines: headlines})
	if err != nil {
		return nil, err
	}
	reply, err := o.llm.Complete(ctx, []provider.Message{{Role: "user", Content: prompt}}, nil)
	if err != nil {
		o.telemetry.RecordOutboundFailure("llm_assess")
		return nil, fmt.Errorf("assessment completion: %w", err)
	}
	raw, err := helpers.ExtractJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("assessment reply: %w", err)
	}
	var assessment models.Assessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		return nil, fmt.Errorf("assessment reply: %w", err)
	}

	return &models.AssessmentResponse{
		Assessment:   assessment,
		Headlines:    headlines,
		NewsArticles: news,
		PortImages:   portImages,
	}, nil
}
