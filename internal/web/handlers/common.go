// Package handlers implements the HTTP API over the recognition core.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/embedder"
	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/gallery"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxUploadBytes bounds the size of an uploaded image.
const maxUploadBytes = 20 << 20 // 20 MiB

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondCoreError maps the core's typed errors to HTTP statuses.
func respondCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, embedder.ErrFaceNotFound):
		respondError(w, http.StatusUnprocessableEntity, "no face found in image")
	case errors.Is(err, gallery.ErrInvalidEmbedding):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gallery.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// readUploadedImage reads the "file" part of a multipart request.
func readUploadedImage(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxUploadBytes))
}

// isMultipart reports whether a request carries a multipart form.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
