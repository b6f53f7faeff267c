package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Health check
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// Compute the tile layout for an image size
	// (GET /plan)
	GetPlan(w http.ResponseWriter, r *http.Request, params GetPlanParams)
	// Tile the image in the request body
	// (POST /poster)
	CreatePoster(w http.ResponseWriter, r *http.Request, params CreatePosterParams)
}

// MiddlewareFunc wraps a single operation handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError is passed to the error handler when a query
// parameter can't be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// GetHealth operation middleware
func (siw *ServerInterfaceWrapper) GetHealth(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.GetHealth))
}

// GetPlan operation middleware
func (siw *ServerInterfaceWrapper) GetPlan(w http.ResponseWriter, r *http.Request) {
	var params GetPlanParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "source_width", query, &params.SourceWidth); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "source_width", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "source_height", query, &params.SourceHeight); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "source_height", Err: err})
		return
	}
	if err := bindLayout(query, &params.LayoutParams); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetPlan(w, r, params)
	}))
}

// CreatePoster operation middleware
func (siw *ServerInterfaceWrapper) CreatePoster(w http.ResponseWriter, r *http.Request) {
	var params CreatePosterParams
	query := r.URL.Query()

	if err := bindLayout(query, &params.LayoutParams); err != nil {
		siw.ErrorHandlerFunc(w, r, err)
		return
	}
	optional := []struct {
		name string
		dest interface{}
	}{
		{"format", &params.Format},
		{"corner_marks", &params.CornerMarks},
		{"overlap_marks", &params.OverlapMarks},
		{"labels", &params.Labels},
		{"quality", &params.Quality},
	}
	for _, p := range optional {
		if err := runtime.BindQueryParameter("form", true, false, p.name, query, p.dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: p.name, Err: err})
			return
		}
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CreatePoster(w, r, params)
	}))
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, handler http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

func bindLayout(query url.Values, p *LayoutParams) error {
	fields := []struct {
		name string
		dest interface{}
	}{
		{"dpi", &p.Dpi},
		{"paper", &p.Paper},
		{"tile_width", &p.TileWidth},
		{"tile_height", &p.TileHeight},
		{"rows", &p.Rows},
		{"cols", &p.Cols},
		{"border", &p.Border},
		{"overlap", &p.Overlap},
	}
	for _, f := range fields {
		if err := runtime.BindQueryParameter("form", true, false, f.name, query, f.dest); err != nil {
			return &InvalidParamFormatError{ParamName: f.name, Err: err}
		}
	}
	return nil
}

// Handler creates http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.GetHealth)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/plan", wrapper.GetPlan)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/poster", wrapper.CreatePoster)
	})

	return r
}
