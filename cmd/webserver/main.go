package main

import (
	"context"
	"embed"
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizdrill"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionName = "quiz-session"

type Server struct {
	study     *quizdrill.Study
	history   *quizdrill.HistoryDB
	explainer *quizdrill.Explainer
	store     sessions.Store
	templates map[string]*template.Template
	metrics   *Metrics
	cfg       *quizdrill.Config
}

// Feedback is the outcome of the last answer, carried across the redirect
// as a session flash.
type Feedback struct {
	QuestionID int
	Correct    bool
	Message    string
	Expected   string
	Analysis   string
	Error      bool
}

func init() {
	gob.Register(Feedback{})
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ./quizdrill.yaml if present)")
	verbose := flag.Bool("verbose", false, "Enable verbose debugging output")
	flag.Parse()

	v := quizdrill.NewViper()
	cfg, err := quizdrill.LoadConfig(v, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := quizdrill.InitLogger(cfg.Log.File, cfg.Log.Verbose || *verbose)
	defer logger.Sync()

	if cfg.Session.IsDefault() {
		logger.Warn("session cookies are signed with the built-in secret, set session.secret or QUIZDRILL_SESSION_SECRET")
	}

	server, cleanup, err := newServer(cfg, prometheus.NewRegistry())
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer cleanup()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("data_dir", cfg.DataDir))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newServer wires the study state, optional history and explainer, the
// session store and the templates. The returned func releases resources.
func newServer(cfg *quizdrill.Config, reg *prometheus.Registry) (*Server, func(), error) {
	store, err := quizdrill.OpenStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	study := quizdrill.NewStudy(store)

	server := &Server{
		study: study,
		store: newSessionStore(cfg.Session.Secret),
		cfg:   cfg,
	}

	cleanup := func() {}
	if path := cfg.HistoryPath(); path != "" {
		history, err := quizdrill.OpenHistory(path)
		if err != nil {
			return nil, nil, err
		}
		study.SetRecorder(history)
		server.history = history
		cleanup = func() { history.Close() }
	}

	if cfg.AI.Enabled() {
		server.explainer = quizdrill.NewExplainer(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	}

	server.templates, err = loadTemplates()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	server.metrics, err = NewMetrics(reg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	server.metrics.BankSize.Set(float64(study.Summary().Total))

	return server, cleanup, nil
}

func newSessionStore(secret string) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func loadTemplates() (map[string]*template.Template, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.0f", f*100)
		},
		"markdown": quizdrill.RenderMarkdown,
		"letter":   quizdrill.OptionLetter,
		"date": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
	}

	templates := make(map[string]*template.Template)

	templateFiles := []struct {
		name string
		file string
	}{
		{"home", "templates/home.html"},
		{"history", "templates/history.html"},
	}

	for _, tmpl := range templateFiles {
		t, err := template.New(tmpl.name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", tmpl.file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", tmpl.name, err)
		}
		templates[tmpl.name] = t
	}
	return templates, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /bank", s.handleUpload)
	mux.HandleFunc("POST /mode", s.handleMode)
	mux.HandleFunc("POST /filters", s.handleFilters)
	mux.HandleFunc("POST /answer", s.handleAnswer)
	mux.HandleFunc("POST /next", s.handleNext)
	mux.HandleFunc("POST /prev", s.handlePrev)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("POST /explain", s.handleExplain)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", s.metrics.Handler())
	return s.metrics.Middleware(mux)
}
