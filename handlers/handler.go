package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"postfile/storage"
	"postfile/storage/models"
	"strings"
	"sync"
)

const (
	INTERNAL_ERROR_MESSAGE  = "Internal Server Error"
	NOT_FOUND_ERROR_MESSAGE = "Post not found"
)

var errNotAnObject = errors.New("request body is not a JSON object")

// Events is told about every successful write. Implementations must not
// block the request for long and must not fail it.
type Events interface {
	PostsChanged(ctx context.Context, reason string)
}

// HTTPHandler serves the posts endpoints. Each request loads the whole
// collection, changes it and saves it back. Concurrent requests race on the
// storage unless Serialize is set, in which case one request at a time runs
// its load-change-save cycle.
type HTTPHandler struct {
	Storage   storage.Storage
	Events    Events
	Serialize bool

	mut sync.Mutex
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// exclusive is used as `defer h.exclusive()()`.
func (h *HTTPHandler) exclusive() func() {
	if !h.Serialize {
		return func() {}
	}
	h.mut.Lock()
	return h.mut.Unlock
}

func (h *HTTPHandler) notify(r *http.Request, reason string) {
	if h.Events != nil {
		h.Events.PostsChanged(r.Context(), reason)
	}
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	log.Printf("[%s] %s: %s", RequestIdFrom(r.Context()), message, err.Error())
	writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{INTERNAL_ERROR_MESSAGE})
}

// readPostBody returns the request fields. A missing body or a body that is
// not declared as JSON counts as no fields at all.
func readPostBody(r *http.Request) (models.Post, error) {
	if !isJSON(r.Header.Get("Content-Type")) {
		return models.Post{}, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return models.Post{}, nil
	}
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	fields, ok := data.(map[string]interface{})
	if !ok {
		return nil, errNotAnObject
	}
	return models.Post(fields), nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// writeJSON answers with v. Posts are maps, so their fields come out in
// sorted key order rather than the order the client sent them.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Printf("[%s] Failed to dump response to json: %s", RequestIdFrom(r.Context()), err.Error())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"` + INTERNAL_ERROR_MESSAGE + `"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
