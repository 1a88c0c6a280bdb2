package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tac_codec/internal/codec"
	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
	"tac_codec/internal/observability"
	"tac_codec/internal/storage"
)

const metar = "METAR EFHK 121250Z 24005KT 9999 FEW030 12/08 Q1013="

type fakeArchive struct {
	records []storage.Record
	params  storage.QueryParams
}

func (f *fakeArchive) Query(_ context.Context, p storage.QueryParams) ([]storage.Record, error) {
	f.params = p
	return f.records, nil
}

func (f *fakeArchive) GetByID(_ context.Context, id int64) (*storage.Record, error) {
	for i := range f.records {
		if f.records[i].ID == id {
			return &f.records[i], nil
		}
	}
	return nil, nil
}

func (f *fakeArchive) GetStats(context.Context) (*storage.Stats, error) {
	return &storage.Stats{Total: len(f.records), ByKind: map[string]int{"METAR": len(f.records)}}, nil
}

type fakeLatest map[string]*storage.Record

func (f fakeLatest) Latest(_ context.Context, aerodrome string, kind model.Kind) (*storage.Record, error) {
	return f[aerodrome+"|"+string(kind)], nil
}

func newTestServer(t *testing.T, cfg Config, opts ...Option) http.Handler {
	t.Helper()
	return NewServer(codec.New(), cfg, opts...).Router()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealthEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t, Config{}), http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestParseEndpoint(t *testing.T) {
	h := newTestServer(t, Config{})

	rec := do(t, h, http.MethodPost, "/api/v1/parse", metar)
	require.Equal(t, http.StatusOK, rec.Code)
	r := decode[codec.Report](t, rec)
	assert.Equal(t, model.KindMETAR, r.Kind)
	assert.Equal(t, conversion.StatusSuccess, r.Status)
	require.NotNil(t, r.METAR)
	assert.Equal(t, "EFHK", r.METAR.Aerodrome.Designator)
}

func TestParseEndpointReference(t *testing.T) {
	h := newTestServer(t, Config{})

	rec := do(t, h, http.MethodPost, "/api/v1/parse?reference=2024-03-12T13:00:00Z", metar)
	require.Equal(t, http.StatusOK, rec.Code)
	r := decode[codec.Report](t, rec)
	require.NotNil(t, r.METAR.IssueTime)
	got, ok := r.METAR.IssueTime.Complete()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 12, 12, 50, 0, 0, time.UTC), got.UTC())
}

func TestParseEndpointBadQuery(t *testing.T) {
	h := newTestServer(t, Config{})
	for _, q := range []string{"zone=loose", "validity=medium", "reference=yesterday", "complete=maybe", "kind=sigmet"} {
		t.Run(q, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/parse?"+q, metar)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestParseCache(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	srv := NewServer(codec.New(), Config{CacheSize: 8}, WithMetrics(m))

	first, err := srv.parse(model.KindUnknown, metar, conversion.Hints{})
	require.NoError(t, err)
	second, err := srv.parse(model.KindUnknown, "  metar efhk 121250Z 24005KT 9999 FEW030 12/08 Q1013 =", conversion.Hints{})
	require.NoError(t, err)
	assert.Same(t, first, second, "normalized input should hit the cache")

	other, err := srv.parse(model.KindUnknown, metar, conversion.Hints{ZoneHandling: conversion.ZoneStrict})
	require.NoError(t, err)
	assert.NotSame(t, first, other, "hints are part of the key")

	// Completion against the clock is never cached.
	a, err := srv.parse(model.KindUnknown, metar, conversion.Hints{CompleteTimes: true})
	require.NoError(t, err)
	b, err := srv.parse(model.KindUnknown, metar, conversion.Hints{CompleteTimes: true})
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, srv.cache.Len())
}

func TestSerializeEndpoint(t *testing.T) {
	h := newTestServer(t, Config{})

	parsed, err := codec.New().Parse(metar, conversion.Hints{})
	require.NoError(t, err)
	body, err := json.Marshal(parsed.METAR)
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/api/v1/serialize/metar", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, metar, decode[map[string]string](t, rec)["tac"])
}

func TestSerializeEndpointErrors(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	h := newTestServer(t, Config{}, WithMetrics(m))

	t.Run("unknown kind", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/serialize/sigmet", "{}")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad json", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/serialize/taf", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported unit", func(t *testing.T) {
		parsed, err := codec.New().Parse(metar, conversion.Hints{})
		require.NoError(t, err)
		parsed.METAR.Temperatures.Air.UOM = "K"
		body, err := json.Marshal(parsed.METAR)
		require.NoError(t, err)

		rec := do(t, h, http.MethodPost, "/api/v1/serialize/metar", string(body))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode[map[string]string](t, rec)
		assert.Equal(t, "AIR_DEWPOINT_TEMPERATURE", resp["token"])
	})
}

func TestLexEndpoint(t *testing.T) {
	h := newTestServer(t, Config{})

	rec := do(t, h, http.MethodPost, "/api/v1/lex", "METAR EFHK 121250Z XYZZY=")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LexResponse](t, rec)
	require.Len(t, resp.Lexemes, 5)
	assert.Equal(t, "METAR_START", resp.Lexemes[0].Identity)
	assert.Equal(t, "AERODROME_DESIGNATOR", resp.Lexemes[1].Identity)
	assert.Equal(t, "ISSUE_TIME", resp.Lexemes[2].Identity)
	assert.Empty(t, resp.Lexemes[3].Identity)
	assert.Equal(t, "UNRECOGNIZED", resp.Lexemes[3].Status)
	assert.Equal(t, "END_TOKEN", resp.Lexemes[4].Identity)
	assert.NotNil(t, resp.Trace)

	rec = do(t, h, http.MethodPost, "/api/v1/lex", "  ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoundTripEndpoint(t *testing.T) {
	h := newTestServer(t, Config{})

	rec := do(t, h, http.MethodPost, "/api/v1/roundtrip", "metar  EFHK 121250Z 24005KT 9999 FEW030 12/08 Q1013 =")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, true, resp["equal"])
	assert.Equal(t, metar, resp["output"])
	assert.NotContains(t, resp, "error")
}

func TestReportEndpoints(t *testing.T) {
	received := time.Date(2024, 3, 12, 12, 52, 0, 0, time.UTC)
	parsed, err := codec.New().Parse(metar, conversion.Hints{})
	require.NoError(t, err)
	rec := storage.NewRecord(parsed, received)
	rec.ID = 7

	archive := &fakeArchive{records: []storage.Record{rec}}
	latest := fakeLatest{"EFHK|METAR": &rec}
	h := newTestServer(t, Config{}, WithArchive(archive), WithLatest(latest))

	t.Run("query", func(t *testing.T) {
		resp := do(t, h, http.MethodGet, "/api/v1/reports?aerodrome=efhk&kind=metar&status=success&q=FEW030&limit=5", "")
		require.Equal(t, http.StatusOK, resp.Code)
		out := decode[[]RecordResponse](t, resp)
		require.Len(t, out, 1)
		assert.Equal(t, int64(7), out[0].ID)
		assert.Equal(t, "2024-03-12T12:52:00Z", out[0].ReceivedAt)
		assert.Equal(t, model.KindMETAR, archive.params.Kind)
		assert.Equal(t, "SUCCESS", archive.params.Status)
		assert.Equal(t, "FEW030", archive.params.FullText)
		assert.Equal(t, 5, archive.params.Limit)
	})

	t.Run("bad limit", func(t *testing.T) {
		resp := do(t, h, http.MethodGet, "/api/v1/reports?limit=5000", "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("by id", func(t *testing.T) {
		resp := do(t, h, http.MethodGet, "/api/v1/reports/7", "")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "EFHK", decode[RecordResponse](t, resp).Aerodrome)

		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/reports/8", "").Code)
		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/reports/abc", "").Code)
	})

	t.Run("stats", func(t *testing.T) {
		resp := do(t, h, http.MethodGet, "/api/v1/reports/stats", "")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 1, decode[storage.Stats](t, resp).Total)
	})

	t.Run("latest", func(t *testing.T) {
		resp := do(t, h, http.MethodGet, "/api/v1/latest/efhk/metar", "")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, metar, decode[RecordResponse](t, resp).Source)

		assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/latest/essa/metar", "").Code)
	})

	t.Run("not configured", func(t *testing.T) {
		bare := newTestServer(t, Config{})
		assert.Equal(t, http.StatusServiceUnavailable, do(t, bare, http.MethodGet, "/api/v1/reports", "").Code)
		assert.Equal(t, http.StatusServiceUnavailable, do(t, bare, http.MethodGet, "/api/v1/latest/efhk/taf", "").Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(t, Config{APIKeys: []string{"secret", ""}})

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"no key", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "nope", http.StatusForbidden},
		{"api key header", "X-API-Key", "secret", http.StatusOK},
		{"bearer token", "Authorization", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", strings.NewReader(metar))
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	// Health stays open.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/health", "").Code)
}

func TestCORSHeaders(t *testing.T) {
	h := newTestServer(t, Config{})
	rec := do(t, h, http.MethodOptions, "/api/v1/parse", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t, Config{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
