package models

import "errors"

// ErrNoPorts is returned when port extraction could not identify two endpoints.
var ErrNoPorts = errors.New("no ports identified")

// NewsArticle is a single headline returned by the news lookup.
// Date is always formatted YYYY-MM-DD.
type NewsArticle struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Ports holds the two endpoint port names extracted from a route.
type Ports struct {
	Port1 string `json:"port1"`
	Port2 string `json:"port2"`
}

// PortImage is a raster thumbnail for a port, with attribution.
type PortImage struct {
	URL        string `json:"url"`
	Credit     string `json:"credit"`
	CreditLink string `json:"creditLink"`
}

// PortSlot pairs a port name with its image. Image is nil when no
// acceptable thumbnail was found.
type PortSlot struct {
	Name  string     `json:"name"`
	Image *PortImage `json:"image"`
}

// PortImages carries both port slots. Both slots are nil when port
// extraction failed.
type PortImages struct {
	Port1 *PortSlot `json:"port1"`
	Port2 *PortSlot `json:"port2"`
}

// Transhipment describes intermediate cargo transfers along a route.
type Transhipment struct {
	Count int      `json:"count"`
	Ports []string `json:"ports"`
}

// Assessment is the structured verdict produced by the model. The shape
// is a contract with the model, not statically enforced; a malformed
// reply surfaces as a parse failure instead.
type Assessment struct {
	Verdict       string       `json:"verdict"`
	Score         int          `json:"score"`
	Reason        string       `json:"reason"`
	Factors       []string     `json:"factors"`
	ShippingLine  string       `json:"shipping_line"`
	TransitTime   string       `json:"transit_time"`
	Transhipment  Transhipment `json:"transhipment"`
	RouteOverview string       `json:"route_overview"`
	NewsUsed      bool         `json:"news_used"`
	Headlines     string       `json:"headlines,omitempty"`
}

// AssessmentResponse is the full /assess payload: the parsed assessment
// merged with the enrichment data.
type AssessmentResponse struct {
	Assessment
	Headlines    string        `json:"headlines"`
	NewsArticles []NewsArticle `json:"newsArticles"`
	PortImages   PortImages    `json:"portImages"`
}

// ChatTurn is a single prior exchange in a follow-up conversation. The
// client is the sole keeper of conversation state across requests.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
