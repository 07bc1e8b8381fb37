package ine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ptstats/ptine/internal/cache"
	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/util"
)

// Metadata fetches per-indicator metadata: title, unit, source and the
// ordered dimension descriptors. An unknown code fails with *NotFoundError;
// a missing unit is not fatal — it falls back to the unit reported by the
// data endpoint's first response.
func (c *Client) Metadata(ctx context.Context, code string) (*model.IndicatorMetadata, bool, error) {
	meta, hit, err := c.fetchMetadata(ctx, code)
	if err != nil {
		return nil, hit, err
	}

	if meta.Unit == "" {
		// Soft fallback: derive the unit from the data endpoint. Failure
		// here never fails the metadata call.
		if data, _, derr := c.fetchData(ctx, code, nil, 0, 0); derr == nil {
			meta.Unit = data.Unit
		} else {
			slog.Debug("unit fallback failed", "code", code, "err", derr)
		}
	}
	return meta, hit, nil
}

// fetchMetadata retrieves and parses the metadata endpoint without fallbacks.
func (c *Client) fetchMetadata(ctx context.Context, code string) (*model.IndicatorMetadata, bool, error) {
	params := url.Values{}
	params.Set("varcd", code)

	body, hit, err := c.get(ctx, metadataEndpoint, params, cache.ClassMetadata)
	if err != nil {
		var terr *TransportError
		if errors.As(err, &terr) && terr.Status == http.StatusNotFound {
			return nil, hit, &NotFoundError{Kind: "metadata", Code: code, Err: err}
		}
		return nil, hit, err
	}

	obj, _, err := unwrapRoot(body)
	if err != nil {
		return nil, hit, &ParseError{Code: code, Excerpt: util.Excerpt(body, 120), Err: err}
	}
	if obj == nil {
		// A bare array without an indicator object means the code is unknown.
		return nil, hit, &NotFoundError{Kind: "metadata", Code: code}
	}

	header := extractHeader(obj)
	dims := extractDimensions(obj)

	// An unknown code comes back as a well-formed payload with no indicator
	// in it. That is a not-found, distinct from an empty unit field.
	if header.Code == "" && len(dims) == 0 {
		return nil, hit, &NotFoundError{Kind: "metadata", Code: code}
	}
	if header.Code == "" {
		header.Code = code
	}
	lang := header.Language
	if lang == "" {
		lang = c.language
	}

	return &model.IndicatorMetadata{
		Code:       header.Code,
		Title:      header.Title,
		Unit:       header.Unit,
		Source:     stringField(obj, "Fonte", "fonte"),
		Language:   lang,
		Dimensions: dims,
		FetchedAt:  time.Now().UTC(),
	}, hit, nil
}

// extractDimensions normalizes the dimension descriptors of either payload
// shape into ordered Dimension values.
func extractDimensions(m map[string]any) []model.Dimension {
	var raw []any
	for _, key := range []string{"Dimensoes", "dimensoes"} {
		if v, ok := m[key]; ok {
			if arr, ok := v.([]any); ok {
				raw = arr
			}
			break
		}
	}

	var dims []model.Dimension
	for i, entry := range raw {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		d := model.Dimension{
			ID:   intField(obj, "id", "DimId", "dim_num"),
			Name: stringField(obj, "nome", "DimDsg", "abrv"),
		}
		if d.ID == 0 {
			d.ID = i + 1 // positional fallback: dimensions arrive in order
		}
		for _, key := range []string{"valores", "Valores", "categorias"} {
			vals, ok := obj[key].([]any)
			if !ok {
				continue
			}
			for _, v := range vals {
				vobj, ok := v.(map[string]any)
				if !ok {
					continue
				}
				d.Values = append(d.Values, model.DimensionValue{
					Code:  stringField(vobj, "codigo", "cat_id", "CatCod"),
					Label: stringField(vobj, "label", "categ_dsg", "CatDsg"),
				})
			}
			break
		}
		dims = append(dims, d)
	}
	return dims
}

func intField(m map[string]any, keys ...string) int {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch t := v.(type) {
			case float64:
				return int(t)
			case string:
				if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
					return n
				}
			}
		}
	}
	return 0
}
