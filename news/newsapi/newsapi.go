package newsapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/harborwatch/harborwatch/config"
	"github.com/harborwatch/harborwatch/internal/httpx"
	"github.com/harborwatch/harborwatch/models"
)

const defaultEndpoint = "https://newsapi.org/v2/everything"

// Article is the NewsAPI wire representation.
type Article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

type response struct {
	Status   string    `json:"status"`
	Articles []Article `json:"articles"`
}

// Client fetches recent English-language news for a shipping route,
// most recent first.
type Client struct {
	cfg  config.NewsAPIConfig
	http *httpx.Client
}

func NewClient(cfg config.NewsAPIConfig, http *httpx.Client) *Client {
	return &Client{cfg: cfg, http: http}
}

func (c *Client) maxResults() int {
	if c.cfg.MaxResults > 0 {
		return c.cfg.MaxResults
	}
	return 5
}

// FetchRouteNews queries NewsAPI for "<route> shipping route" and maps
// the hits into display articles with YYYY-MM-DD dates. The result is
// bounded to the configured page size.
func (c *Client) FetchRouteNews(ctx context.Context, route string) ([]models.NewsArticle, error) {
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	params := url.Values{}
	params.Add("q", route+" shipping route")
	params.Add("language", "en")
	params.Add("sortBy", "publishedAt")
	params.Add("pageSize", fmt.Sprintf("%d", c.maxResults()))

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())
	headers := map[string]string{"X-Api-Key": c.cfg.APIKey}

	var result response
	if err := c.http.DoJSON(ctx, "GET", reqURL, headers, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}

	articles := result.Articles
	if len(articles) > c.maxResults() {
		articles = articles[:c.maxResults()]
	}
	out := make([]models.NewsArticle, 0, len(articles))
	for _, a := range articles {
		out = append(out, models.NewsArticle{
			Title:  a.Title,
			Date:   a.PublishedAt.Format("2006-01-02"),
			URL:    a.URL,
			Source: a.Source.Name,
		})
	}
	return out, nil
}
