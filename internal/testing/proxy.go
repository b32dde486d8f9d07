package testing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
)

// NewProxyServer serves c over the catalog proxy HTTP API. Requests without "Bearer token" get 401.
//
// The caller closes the returned server.
func NewProxyServer(c *Catalog, token string) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /metadata/track/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		t, err := c.Track(id)
		if err != nil {
			writeError(w, err)
			return
		}

		doc := map[string]any{
			"gid":       t.ID.Hex(),
			"name":      t.Name,
			"available": t.Available,
			"album":     map[string]string{"gid": t.Album.Hex()},
		}
		var artists, alternatives, files []map[string]string
		for _, a := range t.Artists {
			artists = append(artists, map[string]string{"gid": a.Hex()})
		}
		for _, a := range t.Alternatives {
			alternatives = append(alternatives, map[string]string{"gid": a.Hex()})
		}
		for format, file := range t.Files {
			files = append(files, map[string]string{"file_id": file.Hex(), "format": format.String()})
		}
		doc["artist"], doc["alternative"], doc["file"] = artists, alternatives, files
		writeJSON(w, http.StatusOK, doc)
	})

	mux.HandleFunc("GET /metadata/artist/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		a, err := c.Artist(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"gid": a.ID.Hex(), "name": a.Name})
	})

	mux.HandleFunc("GET /metadata/album/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		a, err := c.Album(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"gid":  a.ID.Hex(),
			"name": a.Name,
			"date": map[string]int{"year": a.Date.Year, "month": a.Date.Month, "day": a.Date.Day},
		})
	})

	mux.HandleFunc("GET /audio-key/{track}/{file}", func(w http.ResponseWriter, r *http.Request) {
		file, err := models.FileIDFromHex(r.PathValue("file"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		key, err := c.Key(file)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": fmt.Sprintf("%x", key[:])})
	})

	mux.HandleFunc("GET /storage/{file}", func(w http.ResponseWriter, r *http.Request) {
		file, err := models.FileIDFromHex(r.PathValue("file"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		data, err := c.File(file)
		if err != nil {
			writeError(w, err)
			return
		}

		rng := r.Header.Get("Range")
		if rng == "" {
			w.WriteHeader(http.StatusOK)
			w.Write(data)
			return
		}

		var start, end int
		if _, err := fmt.Sscanf(rng, "bytes=%d-%d", &start, &end); err != nil || start > end || start >= len(data) {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		end = min(end, len(data)-1)
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data[start : end+1])
	})

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid token"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
}

func pathID(w http.ResponseWriter, r *http.Request) (models.ID, bool) {
	id, err := models.IDFromHex(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return id, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrKeyDenied):
		status = http.StatusForbidden
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
