package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwell/cms/internal/domain"
	"github.com/inkwell/cms/internal/repository"
	"github.com/inkwell/cms/internal/service/article"
	"github.com/inkwell/cms/internal/service/auth"
	"github.com/inkwell/cms/internal/service/recent"
)

// Stable machine-readable error kinds exposed on the wire.
const (
	kindInvalidInput       = "invalid_input"
	kindDuplicateUsername  = "duplicate_username"
	kindInvalidCredentials = "invalid_credentials"
	kindUnauthenticated    = "unauthenticated"
	kindNotFound           = "not_found"
	kindStorageUnavailable = "storage_unavailable"
	kindInternal           = "internal"
)

const healthCheckTimeout = 2 * time.Second

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	auth     auth.Service
	articles *article.Service
	recents  *recent.Tracker
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, articleSvc *article.Service, recents *recent.Tracker, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		auth:     authSvc,
		articles: articleSvc,
		recents:  recents,
		dbHealth: dbHealth,
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/auth/register", r.audit("/auth/register", r.handleRegister))
	r.mux.HandleFunc("/auth/login", r.audit("/auth/login", r.handleLogin))
	r.mux.HandleFunc("/articles", r.audit("/articles", r.requireAuth(r.handleArticles)))
	r.mux.HandleFunc("/articles/", r.audit("/articles/{id}", r.requireAuth(r.handleArticleByID)))
	r.mux.HandleFunc("/user/recently_viewed", r.audit("/user/recently_viewed", r.requireAuth(r.handleRecentlyViewed)))
	r.mux.HandleFunc("/user/profile", r.audit("/user/profile", r.requireAuth(r.handleProfile)))
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidInput, "invalid JSON body")
		return
	}
	user, token, err := r.auth.Register(req.Context(), payload.Username, payload.Password)
	if err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
		},
		"token": token,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidInput, "invalid JSON body")
		return
	}
	user, token, err := r.auth.Login(req.Context(), payload.Username, payload.Password)
	if err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
		},
		"token": token,
	})
}

func (r *Router) handleArticles(w http.ResponseWriter, req *http.Request) {
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for articles route", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, kindInternal, "authorization context missing")
		return
	}
	switch req.Method {
	case http.MethodGet:
		page, _ := strconv.Atoi(req.URL.Query().Get("page"))
		pageSize, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
		result, err := r.articles.List(req.Context(), info.UserID, page, pageSize)
		if err != nil {
			r.serviceError(w, req, err)
			return
		}
		items := make([]map[string]any, 0, len(result.Items))
		for i := range result.Items {
			items = append(items, marshalArticle(&result.Items[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items":      items,
			"page":       result.Page,
			"pageSize":   result.PageSize,
			"total":      result.Total,
			"totalPages": result.TotalPages,
			"hasNext":    result.HasNext,
			"hasPrev":    result.HasPrev,
		})
	case http.MethodPost:
		var payload struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, kindInvalidInput, "invalid JSON body")
			return
		}
		created, err := r.articles.Create(req.Context(), info.UserID, payload.Title, payload.Content)
		if err != nil {
			r.serviceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusCreated, marshalArticle(created))
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleArticleByID(w http.ResponseWriter, req *http.Request) {
	articleID := strings.TrimPrefix(req.URL.Path, "/articles/")
	if articleID == "" || strings.Contains(articleID, "/") {
		r.notFound(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for article route", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, kindInternal, "authorization context missing")
		return
	}
	switch req.Method {
	case http.MethodGet:
		found, err := r.articles.Get(req.Context(), info.UserID, articleID)
		if err != nil {
			r.serviceError(w, req, err)
			return
		}
		// A view is recorded only here, never on list or writes.
		r.recents.RecordView(info.UserID, found.ID)
		writeJSON(w, http.StatusOK, marshalArticle(found))
	case http.MethodPut:
		var payload struct {
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, kindInvalidInput, "invalid JSON body")
			return
		}
		patch := domain.ArticlePatch{Title: payload.Title, Content: payload.Content}
		updated, err := r.articles.Update(req.Context(), info.UserID, articleID, patch)
		if err != nil {
			r.serviceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, marshalArticle(updated))
	case http.MethodDelete:
		if err := r.articles.Delete(req.Context(), info.UserID, articleID); err != nil {
			r.serviceError(w, req, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		r.methodNotAllowed(w)
	}
}

// handleRecentlyViewed re-resolves each remembered id through the owner-scoped
// store and silently drops ids that no longer resolve, preserving order.
func (r *Router) handleRecentlyViewed(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for recently viewed route", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, kindInternal, "authorization context missing")
		return
	}
	ids := r.recents.RecentIDs(info.UserID)
	items := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		found, err := r.articles.Get(req.Context(), info.UserID, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			r.serviceError(w, req, err)
			return
		}
		items = append(items, marshalArticle(found))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for profile route", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, kindInternal, "authorization context missing")
		return
	}
	user, err := r.auth.Profile(req.Context(), info.UserID)
	if err != nil {
		r.serviceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        user.ID,
		"username":  user.Username,
		"createdAt": user.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// serviceError maps component errors onto the wire taxonomy. Storage faults
// and unexpected errors never leak internal detail.
func (r *Router) serviceError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, article.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, kindInvalidInput, err.Error())
	case errors.Is(err, auth.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, kindDuplicateUsername, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, kindInvalidCredentials, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, kindUnauthenticated, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, kindNotFound, "not found")
	case errors.Is(err, repository.ErrUnavailable):
		r.logger.Error("storage unavailable", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusServiceUnavailable, kindStorageUnavailable, "storage unavailable")
	default:
		r.logger.Error("unhandled service error", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, kindInternal, "internal error")
	}
}

func marshalArticle(a *domain.Article) map[string]any {
	return map[string]any{
		"id":        a.ID,
		"title":     a.Title,
		"content":   a.Content,
		"ownerId":   a.OwnerID,
		"createdAt": a.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt": a.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, kindInvalidInput, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, kindNotFound, "not found")
}
