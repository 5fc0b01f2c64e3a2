// Package web serves the item pages and the JSON item API.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"itemservice/pkg/item"
	"itemservice/pkg/logger"
	"itemservice/pkg/metrics"
	"itemservice/pkg/otel"
	"itemservice/pkg/requestid"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Route names, used to build redirect targets.
const (
	routeItems = "items"
	routeItem  = "item"
)

// Pinger is implemented by repositories that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP requests to an item repository.
type Server struct {
	repo      item.Repository
	log       *logger.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	templates *template.Template
	router    *mux.Router
}

// New parses the page templates and builds the router.
func New(repo item.Repository, log *logger.Logger, m *metrics.Metrics, tracer trace.Tracer) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}
	s := &Server{
		repo:      repo,
		log:       log,
		metrics:   m,
		tracer:    tracer,
		templates: tmpl,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.traceMiddleware, s.metrics.Middleware, s.accessLogMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	r.Handle("/", http.RedirectHandler("/basic/items", http.StatusFound))

	basic := r.PathPrefix("/basic/items").Subrouter()
	basic.HandleFunc("", s.itemsPage).Methods(http.MethodGet).Name(routeItems)
	basic.HandleFunc("/add", s.addFormPage).Methods(http.MethodGet)
	basic.HandleFunc("/add", s.addItem).Methods(http.MethodPost)
	basic.HandleFunc("/{itemId}", s.itemPage).Methods(http.MethodGet).Name(routeItem)
	basic.HandleFunc("/{itemId}/edit", s.editFormPage).Methods(http.MethodGet)
	basic.HandleFunc("/{itemId}/edit", s.editItem).Methods(http.MethodPost)

	api := r.PathPrefix("/api/items").Subrouter()
	api.HandleFunc("", s.listItemsHandler).Methods(http.MethodGet)
	api.HandleFunc("", s.createItemHandler).Methods(http.MethodPost)
	api.HandleFunc("/{itemId}", s.getItemHandler).Methods(http.MethodGet)
	api.HandleFunc("/{itemId}", s.updateItemHandler).Methods(http.MethodPut)

	return r
}

// itemURL builds the item page path for id.
func (s *Server) itemURL(id int64) string {
	u, err := s.router.Get(routeItem).URL("itemId", strconv.FormatInt(id, 10))
	if err != nil {
		return "/basic/items"
	}
	return u.Path
}

// pathID parses the {itemId} path variable.
func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["itemId"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, BindError{{Field: "itemId", Message: strconv.Quote(raw) + " is not a valid id"}}
	}
	return id, nil
}

// status maps an error to its HTTP status code.
func status(err error) int {
	var bindErr BindError
	switch {
	case errors.Is(err, item.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &bindErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes a plain-text error, logging anything that is not a client error.
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := status(err)
	if code == http.StatusInternalServerError {
		s.log.Error(ctx, op, "error", err)
		trace.SpanFromContext(ctx).RecordError(err)
		http.Error(w, http.StatusText(code), code)
		return
	}
	http.Error(w, err.Error(), code)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	st, store := http.StatusOK, "n/a"
	if p, ok := s.repo.(Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.log.Warn(ctx, "store ping failed", "error", err)
			st, store = http.StatusServiceUnavailable, "down"
		} else {
			store = "up"
		}
	}
	body := map[string]interface{}{"status": "healthy", "checks": map[string]string{"store": store}}
	if st != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, st, body)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestid.Header)
		if id == "" {
			id = requestid.Generate()
		}
		w.Header().Set(requestid.Header, id)
		next.ServeHTTP(w, r.WithContext(requestid.NewContext(r.Context(), id)))
	})
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.Propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx = otel.InjectTracing(ctx, s.tracer)
		route := metrics.RoutePath(r)
		ctx, span := s.tracer.Start(ctx, r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		rec := metrics.NewStatusRecorder(w)
		next.ServeHTTP(rec, r.WithContext(ctx))
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", rec.Status),
		)
		if rec.Status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(rec.Status))
		}
	})
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := metrics.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)
		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status,
			"duration", time.Since(start).String(),
		)
	})
}
