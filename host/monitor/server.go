package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gobdc/protocol"
)

// Controls is what the HTTP API can see and change.
type Controls interface {
	Latest() (Report, bool)
	Stats() protocol.Stats
	Target() int32
	SetTarget(v int32) error
	BlinkID(n uint8) error
	ClearSticky(counts bool) error
}

type handlers struct {
	ctl Controls
}

// NewRouter serves the status API and the websocket stream:
//
//	GET  /api/status   latest report
//	GET  /api/stats    link counters
//	GET  /api/voltage  commanded voltage
//	PUT  /api/voltage  {"voltage": n}
//	POST /api/blink    {"count": n}
//	POST /api/clear    {"counts": bool}
//	GET  /ws           report stream
func NewRouter(ctl Controls, hub http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.CleanPath)

	h := &handlers{ctl: ctl}
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.getStatus)
		r.Get("/stats", h.getStats)
		r.Get("/voltage", h.getVoltage)
		r.Put("/voltage", h.setVoltage)
		r.Post("/blink", h.blink)
		r.Post("/clear", h.clear)
	})
	if hub != nil {
		r.Handle("/ws", hub)
	}
	return r
}

type voltageBody struct {
	Voltage int32 `json:"voltage"`
}

type blinkBody struct {
	Count uint8 `json:"count"`
}

type clearBody struct {
	Counts bool `json:"counts"`
}

func (h *handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	report, ok := h.ctl.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no report from the controller yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.Stats())
}

func (h *handlers) getVoltage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, voltageBody{Voltage: h.ctl.Target()})
}

func (h *handlers) setVoltage(w http.ResponseWriter, r *http.Request) {
	var body voltageBody
	if !readJSON(w, r, &body) {
		return
	}
	if err := h.ctl.SetTarget(body.Voltage); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handlers) blink(w http.ResponseWriter, r *http.Request) {
	var body blinkBody
	if !readJSON(w, r, &body) {
		return
	}
	if err := h.ctl.BlinkID(body.Count); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) clear(w http.ResponseWriter, r *http.Request) {
	var body clearBody
	if !readJSON(w, r, &body) {
		return
	}
	if err := h.ctl.ClearSticky(body.Counts); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
