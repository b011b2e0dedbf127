package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bridgetable/internal/engine"
	"bridgetable/internal/history"
	"bridgetable/internal/observability/metrics"
)

// StreamHandler serves GET /api/v1/events/stream as server-sent
// events, one envelope per hand event.
type StreamHandler struct {
	broker *Broker
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(broker *Broker) *StreamHandler {
	return &StreamHandler{broker: broker}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.broker == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.broker.Subscribe()
	defer h.broker.Unsubscribe(ch)

	_, _ = w.Write([]byte("event: ready\ndata: {}\n\n"))
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case payload := <-ch:
			_, _ = w.Write([]byte("event: hand\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

// StateHandler serves GET /api/v1/hand/state as a JSON snapshot.
type StateHandler struct {
	eng *engine.Hand
}

// NewStateHandler constructs a state handler.
func NewStateHandler(eng *engine.Hand) *StateHandler {
	return &StateHandler{eng: eng}
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.eng == nil {
		http.Error(w, "engine not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.eng.Snapshot()); err != nil {
		http.Error(w, "encode snapshot", http.StatusInternalServerError)
	}
}

// ReportHandler serves GET /api/v1/session/report?format=xlsx|pdf.
type ReportHandler struct {
	recorder *history.Recorder
}

// NewReportHandler constructs a report handler.
func NewReportHandler(recorder *history.Recorder) *ReportHandler {
	return &ReportHandler{recorder: recorder}
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.recorder == nil {
		http.Error(w, "recorder not ready", http.StatusServiceUnavailable)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	records := h.recorder.Session()

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case "xlsx":
		payload, err = history.BuildSessionXLSX(records)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = history.BuildSessionPDF(records)
		contentType = "application/pdf"
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return
	}
	if err != nil {
		metrics.CountReportExport(format, metrics.ResultError)
		http.Error(w, "build report", http.StatusInternalServerError)
		return
	}
	metrics.CountReportExport(format, metrics.ResultSuccess)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=session-report."+format)
	_, _ = w.Write(payload)
}

// Routes mounts the monitor handlers on a mux.
func Routes(mux *http.ServeMux, broker *Broker, eng *engine.Hand, recorder *history.Recorder) {
	mux.Handle("/api/v1/events/stream", NewStreamHandler(broker))
	mux.Handle("/api/v1/hand/state", NewStateHandler(eng))
	mux.Handle("/api/v1/session/report", NewReportHandler(recorder))
}
