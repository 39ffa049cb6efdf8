// Package web serves the single page front end of vidgen.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/blacktop/vidgen/internal/media"
	"github.com/blacktop/vidgen/internal/session"
)

// DownloadName is the filename offered to browsers.
const DownloadName = "generated-video.mp4"

// Server exposes a session over HTTP.
type Server struct {
	session *session.Session
	logger  *log.Logger
	// ctx outlives requests so generations keep running after the POST returns.
	ctx context.Context
}

// NewServer creates a server. Generations started through it run with ctx.
func NewServer(ctx context.Context, s *session.Session, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{session: s, logger: logger, ctx: ctx}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, requestLogger(s.logger))

	r.Get("/", s.index)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Get("/image", s.image)
		r.Post("/image", s.selectImage)
		r.Delete("/image", s.clearImage)
		r.Post("/generate", s.generate)
		r.Get("/video", s.video)
	})
	return r
}

type imageInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

type videoInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type statusResponse struct {
	Busy   bool           `json:"busy"`
	Prompt string         `json:"prompt"`
	Status session.Status `json:"status"`
	Quota  bool           `json:"quota"`
	Image  *imageInfo     `json:"image"`
	Video  *videoInfo     `json:"video"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	resp := statusResponse{
		Busy:   snap.Busy,
		Prompt: snap.Prompt,
		Status: snap.Status,
		Quota:  snap.Failure != nil && snap.Failure.Quota(),
	}
	if snap.Image != nil {
		resp.Image = &imageInfo{Name: snap.Image.Name, Type: snap.Image.MIMEType, Size: snap.Image.Size()}
	}
	if snap.Result != nil {
		resp.Video = &videoInfo{ID: snap.Result.ID, Type: snap.Result.MIMEType, Size: snap.Result.Size}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) image(w http.ResponseWriter, r *http.Request) {
	img := s.session.Image()
	if img == nil {
		writeError(w, http.StatusNotFound, errors.New("no image selected"))
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img.Bytes)
}

func (s *Server) selectImage(w http.ResponseWriter, r *http.Request) {
	if s.session.Busy() {
		writeError(w, http.StatusConflict, session.ErrBusy)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageSize+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		s.session.ClearImage()
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	if err := s.session.SelectImageReader(header.Filename, file); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, media.ErrNotImage) {
			code = http.StatusUnsupportedMediaType
		}
		writeError(w, code, err)
		return
	}
	s.status(w, r)
}

func (s *Server) clearImage(w http.ResponseWriter, r *http.Request) {
	if s.session.Busy() {
		writeError(w, http.StatusConflict, session.ErrBusy)
		return
	}
	s.session.ClearImage()
	s.status(w, r)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.session.Busy() {
		writeError(w, http.StatusConflict, session.ErrBusy)
		return
	}
	s.session.SetPrompt(req.Prompt)
	if err := s.session.Start(s.ctx, nil); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	w.Header().Set("Location", "/api/status")
	writeJSON(w, http.StatusAccepted, map[string]bool{"busy": true})
}

func (s *Server) video(w http.ResponseWriter, r *http.Request) {
	v := s.session.Result()
	if v == nil {
		writeError(w, http.StatusNotFound, session.ErrNoResult)
		return
	}
	f, err := v.Open()
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	defer f.Close()

	modtime := time.Time{}
	if fi, err := f.Stat(); err == nil {
		modtime = fi.ModTime()
	}
	w.Header().Set("Content-Type", v.MIMEType)
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+DownloadName+`"`)
	}
	http.ServeContent(w, r, DownloadName, modtime, f)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
