// Package api provides the REST endpoints for parsing, serializing and
// looking up TAC reports.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tac_codec/internal/codec"
	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
	"tac_codec/internal/observability"
	"tac_codec/internal/storage"
)

const maxBodyBytes = 64 << 10

// Archive is the searchable report archive.
type Archive interface {
	Query(ctx context.Context, p storage.QueryParams) ([]storage.Record, error)
	GetByID(ctx context.Context, id int64) (*storage.Record, error)
	GetStats(ctx context.Context) (*storage.Stats, error)
}

// LatestStore returns the newest report per aerodrome and kind.
type LatestStore interface {
	Latest(ctx context.Context, aerodrome string, kind model.Kind) (*storage.Record, error)
}

// Config holds configuration for the API server.
type Config struct {
	Hints     conversion.Hints // defaults, overridden per request by query parameters
	CacheSize int              // parse cache entries; 0 disables the cache
	CacheTTL  time.Duration
	APIKeys   []string // enables API key authentication when non-empty
}

// Server serves the conversion API.
type Server struct {
	conv    *codec.Converter
	hints   conversion.Hints
	cache   *expirable.LRU[string, *codec.Report]
	apiKeys map[string]bool
	archive Archive
	latest  LatestStore
	metrics *observability.Metrics
	log     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithArchive enables the report search endpoints.
func WithArchive(a Archive) Option { return func(s *Server) { s.archive = a } }

// WithLatest enables the latest report endpoint.
func WithLatest(l LatestStore) Option { return func(s *Server) { s.latest = l } }

// WithMetrics records conversion metrics.
func WithMetrics(m *observability.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.log = l } }

// NewServer creates an API server around conv.
func NewServer(conv *codec.Converter, cfg Config, opts ...Option) *Server {
	s := &Server{
		conv:    conv,
		hints:   cfg.Hints,
		apiKeys: make(map[string]bool),
		log:     slog.Default(),
	}
	for _, k := range cfg.APIKeys {
		if k != "" {
			s.apiKeys[k] = true
		}
	}
	if cfg.CacheSize > 0 {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		s.cache = expirable.NewLRU[string, *codec.Report](cfg.CacheSize, nil, ttl)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the configured chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required).
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			if len(s.apiKeys) > 0 {
				r.Use(s.authMiddleware)
			}

			r.Post("/parse", s.handleParse)
			r.Post("/serialize/{kind}", s.handleSerialize)
			r.Post("/lex", s.handleLex)
			r.Post("/roundtrip", s.handleRoundTrip)

			r.Get("/reports", s.handleQueryReports)
			r.Get("/reports/stats", s.handleStats)
			r.Get("/reports/{id}", s.handleGetReport)
			r.Get("/latest/{aerodrome}/{kind}", s.handleLatest)
		})
	})

	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", "addr", addr, "auth", len(s.apiKeys) > 0)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}
		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// hintsFromQuery overrides the defaults with the zone, validity, complete
// and reference query parameters. A reference time implies completion.
func hintsFromQuery(q url.Values, h conversion.Hints) (conversion.Hints, error) {
	var err error
	if v := q.Get("zone"); v != "" {
		if h.ZoneHandling, err = conversion.ParseZoneHandling(v); err != nil {
			return h, err
		}
	}
	if v := q.Get("validity"); v != "" {
		if h.ValidityFormat, err = conversion.ParseValidityFormat(v); err != nil {
			return h, err
		}
	}
	if v := q.Get("complete"); v != "" {
		if h.CompleteTimes, err = strconv.ParseBool(v); err != nil {
			return h, fmt.Errorf("invalid complete %q", v)
		}
	}
	if v := q.Get("reference"); v != "" {
		ref, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return h, fmt.Errorf("invalid reference %q (use RFC 3339)", v)
		}
		h.CompleteTimes, h.ReferenceTime = true, ref.UTC()
	}
	return h, nil
}

// parseKind maps a path or query kind onto a report kind.
func parseKind(s string) (model.Kind, error) {
	switch strings.ToUpper(s) {
	case "":
		return model.KindUnknown, nil
	case "METAR":
		return model.KindMETAR, nil
	case "SPECI":
		return model.KindSPECI, nil
	case "TAF":
		return model.KindTAF, nil
	}
	return model.KindUnknown, fmt.Errorf("unknown report kind %q", s)
}

func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return "", false
	}
	return string(body), true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	hints, err := hintsFromQuery(r.URL.Query(), s.hints)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := parseKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}

	report, err := s.parse(kind, text, hints)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// parse runs the converter through the cache. Requests completing times
// against the current clock are not cached.
func (s *Server) parse(kind model.Kind, text string, hints conversion.Hints) (*codec.Report, error) {
	cacheable := s.cache != nil && !(hints.CompleteTimes && hints.ReferenceTime.IsZero())
	key := string(kind) + "|" + hints.String() + "|" + codec.Normalize(text)
	if cacheable {
		if r, ok := s.cache.Get(key); ok {
			s.cacheLookup("hit")
			return r, nil
		}
		s.cacheLookup("miss")
	}

	start := time.Now()
	var r *codec.Report
	var err error
	if kind == model.KindUnknown {
		r, err = s.conv.Parse(text, hints)
	} else {
		r, err = s.conv.ParseAs(kind, text, hints)
	}
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ParseDuration.Observe(time.Since(start).Seconds())
		s.metrics.ObserveReport(r)
	}
	if cacheable {
		s.cache.Add(key, r)
	}
	return r, nil
}

func (s *Server) cacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (s *Server) handleSerialize(w http.ResponseWriter, r *http.Request) {
	hints, err := hintsFromQuery(r.URL.Query(), s.hints)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil || kind == model.KindUnknown {
		writeError(w, http.StatusBadRequest, "kind must be metar, speci or taf")
		return
	}

	var report any
	if kind == model.KindTAF {
		report = &model.TAF{}
	} else {
		report = &model.METAR{}
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(report); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	text, err := s.conv.Serialize(report, hints)
	if err != nil {
		s.writeSerializationError(w, kind, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tac": text})
}

// writeSerializationError answers 422 for reports that cannot be written
// and 500 for anything else.
func (s *Server) writeSerializationError(w http.ResponseWriter, kind model.Kind, err error) {
	if s.metrics != nil {
		s.metrics.SerializationErrors.WithLabelValues(string(kind)).Inc()
	}
	var serr *conversion.SerializationError
	if errors.As(err, &serr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": serr.Error(),
			"token": serr.Token,
			"field": serr.Field,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// LexemeResponse describes one classified token.
type LexemeResponse struct {
	Index     int            `json:"index"`
	Token     string         `json:"token"`
	Identity  string         `json:"identity,omitempty"`
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Certainty float64        `json:"certainty"`
	Values    map[string]any `json:"values,omitempty"`
}

// LexResponse is the lexing trace of a report.
type LexResponse struct {
	Lexemes []LexemeResponse `json:"lexemes"`
	Trace   any              `json:"trace"`
}

func (s *Server) handleLex(w http.ResponseWriter, r *http.Request) {
	hints, err := hintsFromQuery(r.URL.Query(), s.hints)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}

	seq, trace, err := s.conv.Lex(text, hints)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := LexResponse{Trace: trace}
	for _, l := range seq.Lexemes() {
		lr := LexemeResponse{
			Index:     l.Index(),
			Token:     l.TACToken(),
			Status:    l.Status().String(),
			Message:   l.Message(),
			Certainty: l.Certainty(),
		}
		if l.IsRecognized() {
			lr.Identity = l.Identity().String()
		}
		if vals := l.Values(); len(vals) > 0 {
			lr.Values = make(map[string]any, len(vals))
			for k, v := range vals {
				lr.Values[string(k)] = v
			}
		}
		resp.Lexemes = append(resp.Lexemes, lr)
	}
	writeJSON(w, http.StatusOK, resp)
}

type roundTripResponse struct {
	*codec.RoundTripResult
	Error string `json:"error,omitempty"`
}

func (s *Server) handleRoundTrip(w http.ResponseWriter, r *http.Request) {
	hints, err := hintsFromQuery(r.URL.Query(), s.hints)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}

	res, err := s.conv.RoundTrip(text, hints)
	if res == nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveReport(res.Report)
	}
	resp := roundTripResponse{RoundTripResult: res}
	if err != nil {
		if s.metrics != nil {
			s.metrics.SerializationErrors.WithLabelValues(string(res.Report.Kind)).Inc()
		}
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordResponse is the JSON form of an archived report.
type RecordResponse struct {
	ID         int64             `json:"id,omitempty"`
	ReceivedAt string            `json:"received_at"`
	Kind       model.Kind        `json:"kind"`
	Aerodrome  string            `json:"aerodrome"`
	IssueTime  string            `json:"issue_time,omitempty"`
	Status     conversion.Status `json:"status"`
	Source     string            `json:"source"`
	Issues     conversion.Issues `json:"issues,omitempty"`
	Report     any               `json:"report,omitempty"`
}

func recordToResponse(rec *storage.Record) RecordResponse {
	return RecordResponse{
		ID:         rec.ID,
		ReceivedAt: rec.ReceivedAt.UTC().Format(time.RFC3339),
		Kind:       rec.Kind,
		Aerodrome:  rec.Aerodrome,
		IssueTime:  rec.IssueTime,
		Status:     rec.Status,
		Source:     rec.Source,
		Issues:     rec.Issues,
		Report:     rec.Report(),
	}
}

func (s *Server) handleQueryReports(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "Report archive not configured")
		return
	}
	q := r.URL.Query()
	kind, err := parseKind(q.Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := storage.QueryParams{
		Kind:      kind,
		Aerodrome: q.Get("aerodrome"),
		Status:    strings.ToUpper(q.Get("status")),
		FullText:  q.Get("q"),
		OrderDesc: true,
	}
	if v := q.Get("limit"); v != "" {
		if p.Limit, err = strconv.Atoi(v); err != nil || p.Limit < 0 || p.Limit > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 0 and 1000")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if p.Offset, err = strconv.Atoi(v); err != nil || p.Offset < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
	}

	recs, err := s.archive.Query(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	results := make([]RecordResponse, 0, len(recs))
	for i := range recs {
		results = append(results, recordToResponse(&recs[i]))
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "Report archive not configured")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid report id")
		return
	}
	rec, err := s.archive.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "Report archive not configured")
		return
	}
	stats, err := s.archive.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.latest == nil {
		writeError(w, http.StatusServiceUnavailable, "Latest report store not configured")
		return
	}
	aerodrome := strings.ToUpper(chi.URLParam(r, "aerodrome"))
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil || kind == model.KindUnknown {
		writeError(w, http.StatusBadRequest, "kind must be metar, speci or taf")
		return
	}
	rec, err := s.latest.Latest(r.Context(), aerodrome, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "No report found")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
