package server

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"pullconf/internal/api"
	"pullconf/pkg/logging"
)

// Handler is the HTTP surface of pullconfd: the catalog route and the asset
// route, both authenticated by the X-API-KEY header.
type Handler struct {
	store    *Store
	assetDir string
	assets   singleflight.Group
}

// NewHandler builds the routing table. assetDir must be canonical, config
// validation takes care of that.
func NewHandler(store *Store, assetDir string) http.Handler {
	h := &Handler{store: store, assetDir: assetDir}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/clients/{hostname}/resources", h.catalog)
	mux.HandleFunc("GET /assets/{path...}", h.asset)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return withRequestLog(mux)
}

type contextKey int

const requestIDKey contextKey = iota

// requestID returns the 6 character correlation id of the request.
func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newRequestID() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLog assigns every request a correlation id and records method,
// path, status and duration once the handler returns.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := newRequestID()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		logging.Info("http", "request-id=%s method=%s path=%s status=%d duration=%s",
			id, r.Method, r.URL.Path, recorder.status, time.Since(start).Round(time.Microsecond))
	})
}

// writeError sends the typed JSON error envelope.
func writeError(w http.ResponseWriter, doc *api.ErrorDocument) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(doc.StatusCode())
	json.NewEncoder(w).Encode(doc)
}

// authenticate resolves the X-API-KEY header to a client name.
func (h *Handler) authenticate(r *http.Request) (api.Hostname, *api.ErrorDocument) {
	key := r.Header.Get("X-API-KEY")
	if key == "" {
		return "", api.NewMissingAuthorization()
	}
	name, ok := h.store.Authenticate(api.HashKey(key))
	if !ok {
		return "", api.NewFailedAuthorization()
	}
	return name, nil
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	name, errDoc := h.authenticate(r)
	if errDoc != nil {
		writeError(w, errDoc)
		return
	}
	if r.PathValue("hostname") != name.String() {
		logging.Warn("http", "request-id=%s client %s requested the catalog of %s",
			requestID(r), name, r.PathValue("hostname"))
		writeError(w, api.NewForbidden())
		return
	}

	body, etag, ok := h.store.Document(name)
	if !ok {
		logging.Error("http", nil, "request-id=%s no catalog for authenticated client %s", requestID(r), name)
		writeError(w, api.NewInternalServerError())
		return
	}

	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// asset carries the bytes and checksum of one asset read.
type asset struct {
	content []byte
	etag    string
}

func (h *Handler) asset(w http.ResponseWriter, r *http.Request) {
	name, errDoc := h.authenticate(r)
	if errDoc != nil {
		writeError(w, errDoc)
		return
	}

	// Authorization matches the path remainder against the source
	// parameters of the client's file resources; query strings never take
	// part in the comparison.
	source, err := api.NewSafePath("/" + r.PathValue("path"))
	if err != nil || !h.store.HasSource(name, source) {
		writeError(w, api.NewForbidden())
		return
	}

	canonical, err := filepath.EvalSymlinks(filepath.Join(h.assetDir, filepath.FromSlash(source.String())))
	if err != nil {
		writeError(w, api.NewNotFound("the requested asset does not exist"))
		return
	}
	if canonical != h.assetDir && !strings.HasPrefix(canonical, h.assetDir+string(filepath.Separator)) {
		writeError(w, api.NewNotFound("the requested asset does not exist"))
		return
	}

	loaded, err, _ := h.assets.Do(canonical, func() (any, error) {
		info, err := os.Stat(canonical)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return nil, os.ErrInvalid
		}
		content, err := os.ReadFile(canonical)
		if err != nil {
			return nil, err
		}
		return asset{content: content, etag: checksum(content)}, nil
	})
	if err != nil {
		logging.Error("http", err, "request-id=%s reading asset %s", requestID(r), source)
		writeError(w, api.NewNotFound("the requested asset does not exist"))
		return
	}
	served := loaded.(asset)

	w.Header().Set("ETag", served.etag)
	if r.Header.Get("If-None-Match") == served.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(served.content)
}
