package ine

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/ptstats/ptine/internal/cache"
	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/util"
)

// Catalogue mode flags. opc selects what the XML endpoint returns.
const (
	opcSingle   = "1" // one indicator, selected by varcd
	opcComplete = "2" // the complete catalogue
	opcMain     = "3" // the main indicators group
)

// Indicators fetches the complete indicator catalogue.
func (c *Client) Indicators(ctx context.Context) ([]model.Indicator, bool, error) {
	return c.fetchCatalogue(ctx, opcComplete, "")
}

// MainIndicators fetches the main indicators group, a curated subset of the
// catalogue that is much faster to download.
func (c *Client) MainIndicators(ctx context.Context) ([]model.Indicator, bool, error) {
	return c.fetchCatalogue(ctx, opcMain, "")
}

// Indicator fetches a single catalogue entry by code. Returns a
// *NotFoundError when the code is unknown.
func (c *Client) Indicator(ctx context.Context, code string) (*model.Indicator, bool, error) {
	inds, hit, err := c.fetchCatalogue(ctx, opcSingle, code)
	if err != nil {
		return nil, hit, err
	}
	for i := range inds {
		if inds[i].Code == code {
			return &inds[i], hit, nil
		}
	}
	return nil, hit, &NotFoundError{Kind: "indicator", Code: code}
}

// SearchOptions narrows a catalogue search.
type SearchOptions struct {
	Theme    string
	Subtheme string
	Limit    int
}

// Search returns catalogue entries whose title, keywords or description
// contain query (case-insensitive), optionally filtered by theme/subtheme.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]model.Indicator, bool, error) {
	inds, hit, err := c.Indicators(ctx)
	if err != nil {
		return nil, hit, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var out []model.Indicator
	for _, ind := range inds {
		if opts.Theme != "" && !strings.EqualFold(ind.Theme, opts.Theme) {
			continue
		}
		if opts.Subtheme != "" && !strings.EqualFold(ind.Subtheme, opts.Subtheme) {
			continue
		}
		if q != "" && !matchesQuery(ind, q) {
			continue
		}
		out = append(out, ind)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, hit, nil
}

func matchesQuery(ind model.Indicator, q string) bool {
	return strings.Contains(strings.ToLower(ind.Title), q) ||
		strings.Contains(strings.ToLower(ind.Keywords), q) ||
		strings.Contains(strings.ToLower(ind.Description), q)
}

// fetchCatalogue retrieves and parses one catalogue mode.
func (c *Client) fetchCatalogue(ctx context.Context, opc, code string) ([]model.Indicator, bool, error) {
	params := url.Values{}
	params.Set("opc", opc)
	if code != "" {
		params.Set("varcd", code)
	}

	body, hit, err := c.get(ctx, catalogueEndpoint, params, cache.ClassMetadata)
	if err != nil {
		return nil, false, fmt.Errorf("catalogue: %w", err)
	}

	inds, err := parseCatalogueXML(body)
	if err != nil {
		return nil, hit, &ParseError{Code: code, Excerpt: util.Excerpt(body, 120), Err: err}
	}
	return inds, hit, nil
}

// ─── XML parsing ──────────────────────────────────────────────────────────────

// rawIndicator mirrors one <indicator> element. The catalogue has carried two
// element-naming generations; both are declared here and coalesced below, and
// every field is optional (missing elements default to "").
type rawIndicator struct {
	ID     string `xml:"id,attr"`
	VarCd  string `xml:"varcd"`
	Title  string `xml:"title"`
	Titulo string `xml:"titulo"`
	Theme  string `xml:"theme"`
	Tema   string `xml:"tema"`

	Subtheme    string `xml:"subtheme"`
	Subtema     string `xml:"subtema"`
	Keywords    string `xml:"keywords"`
	Description string `xml:"description"`
	Descricao   string `xml:"descricao"`
	Source      string `xml:"source"`
	Fonte       string `xml:"fonte"`
	Periodicity string `xml:"periodicity"`
	GeoLevel    string `xml:"geo_lastlevel"`

	Dates struct {
		LastPeriod string `xml:"last_period_available"`
		LastUpdate string `xml:"last_update"`
	} `xml:"dates"`
	HTML struct {
		BddURL      string `xml:"bdd_url"`
		MetainfoURL string `xml:"metainfo_url"`
	} `xml:"html"`
	JSON struct {
		Dataset  string `xml:"json_dataset"`
		Metainfo string `xml:"json_metainfo"`
	} `xml:"json"`
}

type rawCatalogue struct {
	XMLName    xml.Name
	Indicators []rawIndicator `xml:"indicator"`
}

// parseCatalogueXML decodes a catalogue payload. The endpoint serves
// ISO-8859-1 as often as UTF-8, so decoding goes through a charset-aware
// reader.
func parseCatalogueXML(body []byte) ([]model.Indicator, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel

	var raw rawCatalogue
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}

	inds := make([]model.Indicator, 0, len(raw.Indicators))
	for _, r := range raw.Indicators {
		inds = append(inds, normalizeIndicator(r))
	}
	return inds, nil
}

// coalesce returns the first non-empty trimmed string.
func coalesce(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func normalizeIndicator(r rawIndicator) model.Indicator {
	return model.Indicator{
		Code:         coalesce(r.VarCd, r.ID),
		Title:        coalesce(r.Title, r.Titulo),
		Theme:        coalesce(r.Theme, r.Tema),
		Subtheme:     coalesce(r.Subtheme, r.Subtema),
		Source:       coalesce(r.Source, r.Fonte),
		Keywords:     strings.TrimSpace(r.Keywords),
		Description:  coalesce(r.Description, r.Descricao),
		Periodicity:  strings.TrimSpace(r.Periodicity),
		LastPeriod:   strings.TrimSpace(r.Dates.LastPeriod),
		LastUpdate:   strings.TrimSpace(r.Dates.LastUpdate),
		GeoLastLevel: strings.TrimSpace(r.GeoLevel),
		DataURL:      strings.TrimSpace(r.JSON.Dataset),
		MetadataURL:  strings.TrimSpace(r.JSON.Metainfo),
	}
}
