package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Upstream liga um prefixo público a um serviço interno
type Upstream struct {
	Prefix string // ex.: "/api/props"
	Target string // ex.: "http://props-service:8080"
}

// Options configura o roteador do gateway
type Options struct {
	Log         *zap.Logger
	Upstreams   []Upstream
	CORSOrigins []string

	OnUpstreamError func(prefix string) // métricas
}

// NewRouter monta o chi router com CORS e um reverse proxy por upstream.
// O prefixo é removido antes de repassar (/api/bets/v1/bets -> /v1/bets).
func NewRouter(opts Options) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	for _, up := range opts.Upstreams {
		rp, err := reverseProxy(opts, up)
		if err != nil {
			return nil, err
		}
		r.Handle(up.Prefix+"/*", http.StripPrefix(up.Prefix, rp))
	}
	return r, nil
}

func reverseProxy(opts Options, up Upstream) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(up.Target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q for %s", up.Target, up.Prefix)
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.FlushInterval = 100 * time.Millisecond
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if opts.Log != nil {
			opts.Log.Warn("upstream failed",
				zap.String("prefix", up.Prefix),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		if opts.OnUpstreamError != nil {
			opts.OnUpstreamError(up.Prefix)
		}
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}
	return rp, nil
}
