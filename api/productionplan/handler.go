// Package productionplan exposes the planner over HTTP.
package productionplan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/kilianp07/powerplan/core/logger"
	"github.com/kilianp07/powerplan/core/model"
)

// maxBodyBytes bounds the size of a planning request.
const maxBodyBytes = 1 << 20

// Planner computes a plan record for a request.
type Planner interface {
	Plan(ctx context.Context, req model.PlanRequest) (model.PlanRecord, error)
}

// Options configures the HTTP handler.
type Options struct {
	// Debug enables the combined access log and stack traces on panics.
	Debug bool
	// AccessLog receives the access log; defaults to stdout.
	AccessLog io.Writer
	Logger    logger.Logger
}

type api struct {
	planner Planner
	log     logger.Logger
}

// NewRouter registers the routes of the planning API.
func NewRouter(p Planner, log logger.Logger) *mux.Router {
	if log == nil {
		log = logger.NopLogger{}
	}
	a := &api{planner: p, log: log}
	r := mux.NewRouter()
	r.HandleFunc("/productionplan", a.productionPlan).Methods(http.MethodPost)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.fail(w, r, NewError(http.StatusMethodNotAllowed, CodeNotAllowed, ""))
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.fail(w, r, NewError(http.StatusNotFound, CodeNotFound, ""))
	})
	return r
}

// NewHandler returns the router wrapped with recovery and, in debug mode,
// access logging.
func NewHandler(p Planner, opts Options) http.Handler {
	var h http.Handler = NewRouter(p, opts.Logger)
	if opts.Debug {
		out := opts.AccessLog
		if out == nil {
			out = os.Stdout
		}
		h = handlers.CombinedLoggingHandler(out, h)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NopLogger{}
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log}),
		handlers.PrintRecoveryStack(opts.Debug),
	)(h)
}

type recoveryLogger struct{ log logger.Logger }

func (l recoveryLogger) Println(v ...any) { l.log.Errorf("%s", fmt.Sprint(v...)) }

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) productionPlan(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			apiErr = BadRequest(err.Error())
		}
		a.fail(w, r, apiErr)
		return
	}
	rec, err := a.planner.Plan(r.Context(), req)
	if err != nil {
		a.log.Errorf("plan: %v", err)
		a.fail(w, r, NewError(http.StatusInternalServerError, CodeUnexpected, ""))
		return
	}
	plan := rec.Plan
	if plan == nil {
		plan = model.Plan{}
	}
	writeJSON(w, http.StatusOK, plan)
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, e *Error) {
	a.log.Errorf("handling %q error for [<%s> %s]", e.Message, r.Method, r.URL)
	writeError(w, e)
}
