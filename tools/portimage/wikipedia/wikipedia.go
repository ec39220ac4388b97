package wikipedia

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/harborwatch/harborwatch/config"
	"github.com/harborwatch/harborwatch/internal/httpx"
	"github.com/harborwatch/harborwatch/models"
)

const (
	defaultEndpoint = "https://en.wikipedia.org/w/api.php"
	pageBaseURL     = "https://en.wikipedia.org/wiki/"

	// candidates inspected per port before giving up
	maxCandidates = 3
	thumbWidth    = 600
)

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type imageResponse struct {
	Query struct {
		Pages map[string]struct {
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// Client looks up a representative photo for a port using the MediaWiki
// search and pageimages APIs.
type Client struct {
	cfg  config.WikipediaConfig
	http *httpx.Client
}

func NewClient(cfg config.WikipediaConfig, http *httpx.Client) *Client {
	return &Client{cfg: cfg, http: http}
}

func (c *Client) endpoint() string {
	if c.cfg.Endpoint != "" {
		return c.cfg.Endpoint
	}
	return defaultEndpoint
}

// LookupPortImage searches for "<port> port harbor" and walks the first
// few hits looking for a raster thumbnail. Vector thumbnails (generic
// map icons) are skipped in favor of the next candidate. Returns nil
// when no acceptable image exists.
func (c *Client) LookupPortImage(ctx context.Context, portName string) (*models.PortImage, error) {
	params := url.Values{}
	params.Add("action", "query")
	params.Add("list", "search")
	params.Add("srsearch", portName+" port harbor")
	params.Add("format", "json")

	var search searchResponse
	if err := c.http.DoJSON(ctx, "GET", fmt.Sprintf("%s?%s", c.endpoint(), params.Encode()), nil, nil, &search); err != nil {
		return nil, fmt.Errorf("wikipedia search: %w", err)
	}
	if len(search.Query.Search) == 0 {
		return nil, nil
	}

	n := len(search.Query.Search)
	if n > maxCandidates {
		n = maxCandidates
	}
	for i := 0; i < n; i++ {
		title := search.Query.Search[i].Title

		imgParams := url.Values{}
		imgParams.Add("action", "query")
		imgParams.Add("titles", title)
		imgParams.Add("prop", "pageimages")
		imgParams.Add("format", "json")
		imgParams.Add("pithumbsize", fmt.Sprintf("%d", thumbWidth))

		var img imageResponse
		if err := c.http.DoJSON(ctx, "GET", fmt.Sprintf("%s?%s", c.endpoint(), imgParams.Encode()), nil, nil, &img); err != nil {
			return nil, fmt.Errorf("wikipedia pageimages: %w", err)
		}

		for _, page := range img.Query.Pages {
			if page.Thumbnail == nil {
				continue
			}
			src := page.Thumbnail.Source
			if strings.Contains(src, ".svg") {
				continue
			}
			return &models.PortImage{
				URL:        src,
				Credit:     "Wikipedia",
				CreditLink: pageBaseURL + url.PathEscape(title),
			}, nil
		}
	}
	return nil, nil
}
