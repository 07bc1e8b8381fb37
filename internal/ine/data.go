package ine

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ptstats/ptine/internal/cache"
	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/util"
)

// DefaultChunkSize is the upstream limit on data points per request.
const DefaultChunkSize = 40000

// Data fetches the data points for an indicator, optionally filtered by
// dimensions ({"Dim1": "2023", "Dim2": "1"}). Filter keys are validated
// against the indicator's declared dimensions before any data request is
// issued; unknown keys fail with *InvalidDimensionError. Values are
// deliberately not checked against the dimension's value set.
func (c *Client) Data(ctx context.Context, code string, dimensions map[string]string) (*model.DataResponse, bool, error) {
	if err := c.validateDimensions(ctx, code, dimensions); err != nil {
		return nil, false, err
	}

	data, hit, err := c.fetchData(ctx, code, dimensions, 0, 0)
	if err != nil {
		return nil, hit, err
	}

	if data.Unit == "" {
		// Mirror of the metadata unit fallback: the legacy data payload can
		// omit the unit, which metadata still carries.
		if meta, _, merr := c.fetchMetadata(ctx, code); merr == nil {
			data.Unit = meta.Unit
			if data.Title == "" {
				data.Title = meta.Title
			}
		} else {
			slog.Debug("metadata fallback failed", "code", code, "err", merr)
		}
	}
	return data, hit, nil
}

// AllData returns a lazy sequence of data chunks for indicators larger than
// the per-request point limit. Each chunk is fetched only when the caller
// pulls it; stopping early abandons the remaining requests. The sequence is
// finite and not restartable — re-iterating re-issues all requests.
//
// Chunks hold exactly chunkSize points except possibly the last; a short
// page signals exhaustion.
func (c *Client) AllData(ctx context.Context, code string, dimensions map[string]string, chunkSize int) iter.Seq2[*model.DataResponse, error] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return func(yield func(*model.DataResponse, error) bool) {
		if err := c.validateDimensions(ctx, code, dimensions); err != nil {
			yield(nil, err)
			return
		}

		offset := 0
		for {
			chunk, _, err := c.fetchData(ctx, code, dimensions, offset, chunkSize)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
			if len(chunk.Points) < chunkSize {
				return
			}
			offset += chunkSize
		}
	}
}

// validateDimensions rejects unknown filter keys before any data request.
// Key-presence only: value sets can be large and dynamic, so values are left
// for the API to reject. Malformed keys (not DimN) fail without even the
// metadata lookup.
func (c *Client) validateDimensions(ctx context.Context, code string, dimensions map[string]string) error {
	if len(dimensions) == 0 {
		return nil
	}
	for key := range dimensions {
		if !strings.HasPrefix(key, "Dim") {
			return &InvalidDimensionError{Code: code, Key: key}
		}
		if _, err := strconv.Atoi(key[3:]); err != nil {
			return &InvalidDimensionError{Code: code, Key: key}
		}
	}

	meta, _, err := c.fetchMetadata(ctx, code)
	if err != nil {
		return err
	}
	for key := range dimensions {
		if !meta.HasDimension(key) {
			return &InvalidDimensionError{Code: code, Key: key, Available: meta.DimensionKeys()}
		}
	}
	return nil
}

// fetchData performs one data request and normalizes the payload. No
// fallbacks here; Data and Metadata layer those on top. offset/limit of 0
// request the API defaults.
func (c *Client) fetchData(ctx context.Context, code string, dimensions map[string]string, offset, limit int) (*model.DataResponse, bool, error) {
	params := url.Values{}
	params.Set("op", "2")
	params.Set("varcd", code)
	if offset > 0 {
		params.Set("start", strconv.Itoa(offset))
	}
	if limit > 0 {
		params.Set("count", strconv.Itoa(limit))
	}
	// Sorted for deterministic request URLs.
	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params.Set(k, dimensions[k])
	}

	body, hit, err := c.get(ctx, dataEndpoint, params, cache.ClassData)
	if err != nil {
		var terr *TransportError
		if errors.As(err, &terr) && terr.Status == http.StatusNotFound {
			return nil, hit, &NotFoundError{Kind: "indicator", Code: code, Err: err}
		}
		return nil, hit, err
	}

	obj, bare, err := unwrapRoot(body)
	if err != nil {
		return nil, hit, &ParseError{Code: code, Excerpt: util.Excerpt(body, 120), Err: err}
	}

	header := headerFields{Code: code, Language: c.language}
	if obj != nil {
		h := extractHeader(obj)
		if h.Code != "" {
			header.Code = h.Code
		}
		header.Title = h.Title
		header.Unit = h.Unit
		if h.Language != "" {
			header.Language = h.Language
		}
	}

	return &model.DataResponse{
		Code:        header.Code,
		Title:       header.Title,
		Unit:        header.Unit,
		Language:    header.Language,
		Points:      extractPoints(obj, bare),
		ExtractedAt: time.Now().UTC(),
	}, hit, nil
}
