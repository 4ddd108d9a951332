package web

import (
	"context"
	stderrors "errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/errors"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/services"
	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

const (
	flashCookie     = "soundboard_flash"
	maxMemoryBytes  = 8 << 20
	formOverhead    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Server serves the upload form
type Server struct {
	addr      string
	catalog   *services.CatalogService
	ingestion *services.IngestionService
	limiter   *rate.Limiter
	maxBytes  int64
	logger    *logger.Logger
	page      *template.Template
}

// Config holds web server settings
type Config struct {
	Addr             string
	UploadsPerMinute int
	MaxUploadBytes   int64
}

// NewServer creates a new web server
func NewServer(cfg Config, catalog *services.CatalogService, ingestion *services.IngestionService, log *logger.Logger) *Server {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.UploadsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.UploadsPerMinute)), cfg.UploadsPerMinute)
	}

	return &Server{
		addr:      cfg.Addr,
		catalog:   catalog,
		ingestion: ingestion,
		limiter:   limiter,
		maxBytes:  cfg.MaxUploadBytes,
		logger:    log,
		page:      template.Must(template.New("index").Parse(indexTemplate)),
	}
}

// Handler returns the HTTP handler with request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				s.logger.WithField("panic", rec).Error("Recovered from panic in web handler")
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rw, r)

		s.logger.WithFields(map[string]interface{}{
			"status":   rw.status,
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("HTTP request")
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("🌐 Web upload form listening")
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown failed: %w", err)
		}
		return nil
	case err := <-serverErr:
		return err
	}
}

type flash struct {
	Kind    string
	Message string
}

type indexData struct {
	Sounds []string
	Flash  *flash
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{Flash: s.popFlash(w, r)}
	for _, entry := range s.catalog.List() {
		data.Sounds = append(data.Sounds, entry.Name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.WithError(err).Error("Failed to render index")
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		s.setFlash(w, "error", errors.GetUserMessage(errors.ErrRateLimited))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if s.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+formOverhead)
	}

	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.fail(w, r, errors.ErrFileTooLarge)
			return
		}
		s.fail(w, r, errors.NewUserError(err, "Could not read the uploaded form."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.setFlash(w, "error", "Please choose a file to upload.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	defer file.Close()

	entry, err := s.ingestion.IngestCanonical(r.Context(), services.UploadRequest{
		Name:         r.FormValue("name"),
		FilenameHint: header.Filename,
		Body:         file,
		RequestedBy:  r.RemoteAddr,
		Source:       "web",
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.setFlash(w, "success", fmt.Sprintf("Uploaded sound: %s", entry.Name))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithError(err).Debug("Web upload rejected")
	s.setFlash(w, "error", errors.GetUserMessage(err))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(value, "|")
	if !ok {
		return nil
	}
	return &flash{Kind: kind, Message: message}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
