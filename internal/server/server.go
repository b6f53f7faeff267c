package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kiesman99/postertile/internal/api"
	"github.com/kiesman99/postertile/internal/logging"
	"github.com/kiesman99/postertile/internal/poster"
	"github.com/kiesman99/postertile/pkg/tile"
)

// MaxUploadBytes bounds the size of a posted source image.
const MaxUploadBytes = 64 << 20

// Server implements api.ServerInterface.
type Server struct {
	startTime time.Time
	version   string
	defaults  *poster.Options
	builder   *poster.Builder
	logger    *log.Logger
}

// NewServer creates a new server instance. defaults supplies every
// parameter a request leaves unset.
func NewServer(version string, defaults *poster.Options, logger *log.Logger) *Server {
	if defaults == nil {
		defaults = poster.DefaultOptions()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		startTime: time.Now(),
		version:   version,
		defaults:  defaults,
		builder:   poster.New(),
		logger:    logger,
	}
}

// Router mounts the API under /api/v1 behind the usual middleware stack.
func (s *Server) Router(timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors)

	r.Mount("/api/v1", api.HandlerWithOptions(s, api.ChiServerOptions{
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.writeErrorResponse(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/health", http.StatusMovedPermanently)
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	})
}

// GetPlan returns the tile layout for an image of the requested size.
func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request, params api.GetPlanParams) {
	opts, err := s.options(params.LayoutParams)
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	res, err := s.builder.Plan(params.SourceWidth, params.SourceHeight, opts)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.NewPlanResponse(res))
}

// CreatePoster tiles the image in the request body and returns a PDF or a
// zip of tile images.
func (s *Server) CreatePoster(w http.ResponseWriter, r *http.Request, params api.CreatePosterParams) {
	opts, err := s.options(params.LayoutParams)
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}
	if params.CornerMarks != nil {
		opts.CornerMarks = *params.CornerMarks
	}
	if params.OverlapMarks != nil {
		opts.OverlapMarks = *params.OverlapMarks
	}
	if params.Labels != nil {
		opts.Labels = *params.Labels
	}

	format := api.Pdf
	if params.Format != nil {
		format = *params.Format
	}
	if format != api.Pdf && format != api.Zip {
		s.writeErrorResponse(w, r, http.StatusBadRequest, api.CodeValidation,
			fmt.Sprintf("format must be %q or %q", api.Pdf, api.Zip))
		return
	}
	quality := tile.DefaultQuality
	if params.Quality != nil {
		if *params.Quality < 1 || *params.Quality > 100 {
			s.writeErrorResponse(w, r, http.StatusBadRequest, api.CodeValidation, "quality must be between 1 and 100")
			return
		}
		quality = *params.Quality
	}

	src, err := tile.Decode(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, api.CodeInvalidImage, err.Error())
		return
	}

	var (
		body        bytes.Buffer
		sink        poster.Sink
		finish      func() error
		contentType string
	)
	switch format {
	case api.Zip:
		zs := poster.NewZipSink(&body, tile.FormatJPEG, quality, opts.Spec.DPI)
		sink, finish, contentType = zs, zs.Close, "application/zip"
	default:
		pdf := poster.NewPDFSink(opts.Spec.DPI, quality)
		sink, contentType = pdf, "application/pdf"
		finish = func() error { return pdf.Output(&body) }
	}

	ctx := logging.WithLogger(r.Context(), s.logger)
	p, err := s.builder.Build(ctx, src, opts, sink)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if err := finish(); err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if p.Mismatch != nil {
		w.Header().Set("X-Poster-Warning", p.Mismatch.Error())
	}
	w.Header().Set("X-Poster-Tiles", strconv.Itoa(len(p.Tiles)))
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body.Bytes()); err != nil {
		s.logger.Error("Error writing response", "err", err)
	}
}

// options merges request parameters over the server defaults.
func (s *Server) options(p api.LayoutParams) (*poster.Options, error) {
	opts := *s.defaults
	spec := &opts.Spec

	if p.Paper != nil && *p.Paper != "custom" {
		paper, ok := tile.LookupPaper(*p.Paper)
		if !ok {
			return nil, fmt.Errorf("unknown paper size: %s", *p.Paper)
		}
		spec.TileWidth, spec.TileHeight = paper.Width, paper.Height
	}
	if p.TileWidth != nil {
		spec.TileWidth = *p.TileWidth
	}
	if p.TileHeight != nil {
		spec.TileHeight = *p.TileHeight
	}
	if p.Dpi != nil {
		spec.DPI = *p.Dpi
	}
	if p.Rows != nil {
		spec.Rows = *p.Rows
	}
	if p.Cols != nil {
		spec.Cols = *p.Cols
	}
	if p.Border != nil {
		spec.Border = *p.Border
	}
	if p.Overlap != nil {
		spec.Overlap = *p.Overlap
	}
	return &opts, nil
}

// handleError maps builder errors onto HTTP responses.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var geomErr *tile.GeometryError
	if errors.As(err, &geomErr) {
		s.writeErrorResponse(w, r, http.StatusBadRequest, api.CodeInvalidGeometry, geomErr.Error())
		return
	}

	s.logger.Error("Request failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
	s.writeErrorResponse(w, r, http.StatusInternalServerError, api.CodeInternal, "Internal server error")
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	response := api.ErrorResponse{
		Error:   errorCode,
		Message: message,
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		response.RequestId = &id
	}
	s.writeJSON(w, statusCode, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", "err", err)
	}
}
