// Package httpapi exposes bridge status, thing state and raw command entry
// over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daemonp/dsc2mqtt/internal/bridge"
	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/log"
	"github.com/daemonp/dsc2mqtt/internal/things"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

// Controller is the session surface the API drives.
type Controller interface {
	Snapshot() bridge.Snapshot
	SendCommand(code dsc.Code, args ...string) error
}

// Lister returns every known thing.
type Lister interface {
	Things() []things.Thing
}

type handlers struct {
	session Controller
	things  Lister
	log     *log.Logger
}

type commandRequest struct {
	Code string   `json:"code"`
	Args []string `json:"args"`
}

type thingView struct {
	Kind  string      `json:"kind"`
	Key   string      `json:"key"`
	Name  string      `json:"name"`
	Ready bool        `json:"ready"`
	State interface{} `json:"state"`
}

// NewRouter builds the API. gatherer may be nil, in which case /metrics is
// not mounted.
func NewRouter(session Controller, lister Lister, gatherer prometheus.Gatherer, logger *log.Logger) http.Handler {
	h := &handlers{session: session, things: lister, log: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/status", h.status)
	r.Get("/things", h.listThings)
	r.Post("/command", h.command)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// listThings returns every thing, optionally filtered with ?kind=zone.
func (h *handlers) listThings(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("kind")
	var kind types.Kind
	if filter != "" {
		k, err := types.ParseKind(filter)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = k
	}

	list := h.things.Things()
	out := make([]thingView, 0, len(list))
	for _, t := range list {
		id := t.Identity()
		if filter != "" && id.Kind != kind {
			continue
		}
		out = append(out, thingView{
			Kind:  id.Kind.String(),
			Key:   id.Key(),
			Name:  t.Name(),
			Ready: t.Ready(),
			State: t.State(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	err := h.session.SendCommand(dsc.Code(req.Code), req.Args...)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
	case errors.Is(err, dsc.ErrInvalidCommand):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, bridge.ErrNotConnected):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Warn("Command %s failed: %v", req.Code, err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
