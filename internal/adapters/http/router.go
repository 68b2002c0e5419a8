package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/governed-rag/internal/config"
	"github.com/kirillkom/governed-rag/internal/core/domain"
	"github.com/kirillkom/governed-rag/internal/core/ports"
	"github.com/kirillkom/governed-rag/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg      config.Config
	metrics  *metrics.HTTPServerMetrics
	ingestUC ports.DocumentIngestor
	queryUC  ports.QueryService
	repo     ports.DocumentReader
	ready    func() bool
}

func NewRouter(
	cfg config.Config,
	serverMetrics *metrics.HTTPServerMetrics,
	ingestUC ports.DocumentIngestor,
	queryUC ports.QueryService,
	repo ports.DocumentReader,
) *Router {
	return &Router{
		cfg:      cfg,
		metrics:  serverMetrics,
		ingestUC: ingestUC,
		queryUC:  queryUC,
		repo:     repo,
	}
}

// WithReadiness reports index state on /healthz so load balancers stop
// routing to a replica that has no servable generation yet.
func (rt *Router) WithReadiness(ready func() bool) *Router {
	rt.ready = ready
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/query", rt.query)
	mux.HandleFunc("/v1/answer", rt.answer)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = identityMiddleware(handler)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWait)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	if rt.ready != nil && !rt.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type retrievalRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func (rt *Router) decodeRetrievalRequest(w http.ResponseWriter, r *http.Request) (retrievalRequest, bool) {
	var req retrievalRequest
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return req, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return req, false
	}
	if req.TopK <= 0 {
		req.TopK = rt.cfg.RetrievalTopK
	}
	return req, true
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	req, ok := rt.decodeRetrievalRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	results, err := rt.queryUC.Query(r.Context(), req.Question, requesterFromContext(r.Context()), req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, "/v1/query", len(results), time.Since(start))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": domain.RequestIDFromContext(r.Context()),
		"results":    results,
	})
}

func (rt *Router) answer(w http.ResponseWriter, r *http.Request) {
	req, ok := rt.decodeRetrievalRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	answer, err := rt.queryUC.Answer(r.Context(), req.Question, requesterFromContext(r.Context()), req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(serviceName, "/v1/answer", len(answer.Sources), time.Since(start))
		if answer.Refused {
			rt.metrics.RecordRefusal(serviceName, "insufficient_context")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": domain.RequestIDFromContext(r.Context()),
		"answer":     answer,
	})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	maxBytes := int64(rt.cfg.UploadMaxSizeMB) << 20
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	accessTags := parseTagList(r.FormValue("access_tags"))

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		accessTags,
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func parseTagList(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func contextWithRequester(ctx context.Context, requester domain.RequesterContext) context.Context {
	return context.WithValue(ctx, requesterContextKey{}, requester)
}

// requesterFromContext defaults to an unresolved requester; retrieval then
// fails closed rather than serving restricted content to unknown callers.
func requesterFromContext(ctx context.Context) domain.RequesterContext {
	requester, _ := ctx.Value(requesterContextKey{}).(domain.RequesterContext)
	return requester
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
