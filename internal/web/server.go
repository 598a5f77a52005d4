package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"foosball/internal/back"
	"foosball/internal/config"
	"foosball/internal/util"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/leonelquinteros/gotext"
	"github.com/rs/cors"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

type ctxKey int

const (
	ctxKeyLocale ctxKey = iota
	ctxKeyAdmin
)

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(s.localize)
	r.Use(s.authenticator)

	r.Get("/", s.index)
	r.Get("/players", s.getPlayers)
	r.Get("/players/{id}", s.getOnePlayer)
	r.Get("/teams", s.getTeams)
	r.Get("/results", s.getResults)
	r.Get("/rankings", s.getRankings)
	r.Get("/stats", s.stats)
	r.Get("/stats/ratings.svg", s.statsRatings)
	r.Get("/login", s.getLogin)
	r.With(s.throttle(s.loginLimiter)).Post("/login", s.postLogin)
	r.Post("/logout", s.postLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Use(s.throttle(s.limiter))

		r.Post("/players", s.postPlayer)
		r.Post("/players/delete", s.deletePlayer)
		r.Post("/teams", s.postTeam)
		r.Post("/teams/delete", s.deleteTeam)
		r.Post("/results", s.postResult)
		r.Post("/results/delete", s.deleteResult)
	})

	// Read-only API, results are capped by ?limit and nothing else is paginated.
	r.Route("/v1", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.config.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		}).Handler)

		r.Get("/players", s.apiPlayers)
		r.Get("/teams", s.apiTeams)
		r.Get("/rankings", s.apiRankings)
		r.Get("/results", s.apiResults)
		r.Get("/quality", s.apiQuality)
	})

	r.Handle("/metrics", s.metrics)

	fs := http.StripPrefix("/_/", http.FileServer(http.Dir(filepath.Join(s.baseDir, "static"))))
	r.Get("/_/*", func(w http.ResponseWriter, r *http.Request) {
		s.cache(w, "public", 24*time.Hour)
		fs.ServeHTTP(w, r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.error(w, r, nil, http.StatusNotFound)
	})

	return r
}

type Server struct {
	http    *http.Server
	back    *back.Back
	config  *config.Config
	metrics http.Handler
	baseDir string

	tpl     map[string]*template.Template
	locales map[string]*gotext.Locale
	matcher language.Matcher
	limiter *rate.Limiter

	loginLimiter *rate.Limiter
}

// NewServer loads the templates and translations from conf.ResourcesDir.
// metrics is served as is on /metrics.
func NewServer(b *back.Back, conf *config.Config, metrics http.Handler) (*Server, error) {
	s := &Server{
		back:    b,
		config:  conf,
		metrics: metrics,
		baseDir: filepath.Join(conf.ResourcesDir, "web"),

		loginLimiter: rate.NewLimiter(rate.Every(loginInterval), loginBurst),
	}

	if conf.WriteRateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(conf.WriteRateLimit), conf.WriteBurst)
	}

	var err error
	s.locales, s.matcher, err = loadLocales(filepath.Join(conf.ResourcesDir, "translations"))
	if err != nil {
		return nil, fmt.Errorf("unable to load translations: %w", err)
	}

	s.tpl, err = s.loadTemplates(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("unable to load templates: %w", err)
	}

	s.http = &http.Server{
		Addr:         conf.HTTPAddr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  10 * time.Second,
		Handler:      s.setupRouter(),
	}

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Serve listens until done is closed, the caller must have added this call
// to wg.
func (s *Server) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	log.Infof("starting HTTP server on %s", s.http.Addr)
	defer wg.Done()

	go func() {
		err := s.http.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("HTTP server closed")
			return
		}

		log.Fatalf("webserver crashed: %s", err)
	}()

	<-done
	if err := s.http.Close(); err != nil {
		log.Warnf("unable to close webserver: %s", err)
	}
}

type templateData struct {
	Locale string
	Path   string
	// Admin is true when the current user can change the ladder.
	Admin bool
	// AuthEnabled is true when changes require to log in.
	AuthEnabled bool
	Error       string
	// Form holds the submitted values when a form is rendered again.
	Form url.Values

	Payload interface{}
}

func (s *Server) response(
	w http.ResponseWriter,
	r *http.Request,
	code int,
	template string,
	payload interface{},
) {
	s.responseWithError(w, r, code, template, payload, "")
}

func (s *Server) responseWithError(
	w http.ResponseWriter,
	r *http.Request,
	code int,
	template string,
	payload interface{},
	errMsg string,
) {
	tpl, ok := s.tpl[template]
	if !ok {
		log.Errorf("template not found: %s", template)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)

	if err := tpl.ExecuteTemplate(w, "base", templateData{
		Locale:      localeFromRequest(r),
		Path:        r.URL.Path,
		Admin:       isAdmin(r),
		AuthEnabled: s.config.AdminPassword != "",
		Error:       errMsg,
		Form:        r.PostForm,
		Payload:     payload,
	}); err != nil {
		log.Errorf("unable to render template %s: %s", template, err)
	}
}

func (s *Server) json(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	response, err := json.Marshal(data)
	if err != nil {
		log.Errorf("unable to marshal response: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(code)

	if _, err := w.Write(response); err != nil {
		log.Errorf("unable to send response: %s", err)
	}
}

// error renders the error page, err is only shown to the user if it carries
// a public message.
func (s *Server) error(w http.ResponseWriter, r *http.Request, err error, code int) {
	if code >= http.StatusInternalServerError {
		log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
	} else if err != nil {
		log.Debugf("%s %s: %s", r.Method, r.URL.Path, err)
	}

	msg, ok := util.PublicMessage(err)
	if !ok {
		msg = http.StatusText(code)
	}

	s.responseWithError(w, r, code, "error.html", struct{ Code int }{code}, msg)
}

// formError renders tpl again with the public message of err, the page
// payload is fetched anew by load.
func (s *Server) formError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	template string,
	load func(context.Context) (interface{}, error),
) {
	code := statusFromError(err)
	msg, ok := util.PublicMessage(err)
	if !ok {
		s.error(w, r, err, code)
		return
	}

	payload, loadErr := load(r.Context())
	if loadErr != nil {
		s.error(w, r, loadErr, http.StatusInternalServerError)
		return
	}

	s.responseWithError(w, r, code, template, payload, msg)
}

func (s *Server) cache(w http.ResponseWriter, scope string, d time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("%s,max-age=%d", scope, d/time.Second))
}

// statusFromError maps back errors to the status to answer with.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, back.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, back.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, back.ErrExists), errors.Is(err, back.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, back.ErrConnection):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
