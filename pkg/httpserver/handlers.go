package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mnohosten/lsmkv/pkg/lsm"
)

// writeSuccess writes a JSON success envelope.
func writeSuccess(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":     true,
		"result": result,
	})
}

// writeError writes a JSON error envelope with an appropriate status code.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch err.(type) {
	case *BadRequestError:
		status = http.StatusBadRequest
	case *NotFoundError:
		status = http.StatusNotFound
	case *UnauthorizedError:
		status = http.StatusUnauthorized
	}
	if err == lsm.ErrEmptyKey || err == lsm.ErrOversizedField {
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":    false,
		"error": err.Error(),
	})
}

// handleGet serves GET /kv/{key}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	start := time.Now()
	v, ok, err := s.store.Get([]byte(key))
	s.metricsCollector.RecordGet(time.Since(start), err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, &NotFoundError{Key: key})
		return
	}
	writeSuccess(w, map[string]string{"key": key, "value": string(v)})
}

type putRequest struct {
	Value string `json:"value"`
}

// handlePut serves PUT /kv/{key}.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxRequestSize+1))
	if err != nil {
		writeError(w, &BadRequestError{Message: "failed to read request body"})
		return
	}
	defer r.Body.Close()
	if int64(len(body)) > s.config.MaxRequestSize {
		writeError(w, &BadRequestError{Message: "request body too large"})
		return
	}

	var req putRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, &BadRequestError{Message: "invalid JSON body"})
		return
	}

	start := time.Now()
	err = s.store.Set([]byte(key), []byte(req.Value))
	s.metricsCollector.RecordSet(time.Since(start), err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string]string{"key": key})
}

// handleDelete serves DELETE /kv/{key}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	start := time.Now()
	err := s.store.Delete([]byte(key))
	s.metricsCollector.RecordDelete(time.Since(start), err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string]string{"key": key})
}

// handleHealth serves GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.startTime).String(),
	})
}
