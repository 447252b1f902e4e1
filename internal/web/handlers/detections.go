package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/recognition"
)

// DetectionsHandler accepts captured images (or precomputed embeddings) and
// runs them through the matching pipeline.
type DetectionsHandler struct {
	svc *recognition.Service
}

// NewDetectionsHandler creates a detections handler.
func NewDetectionsHandler(svc *recognition.Service) *DetectionsHandler {
	return &DetectionsHandler{svc: svc}
}

// detectionJSONRequest is the JSON alternative to a multipart image upload,
// for callers that already hold an embedding.
type detectionJSONRequest struct {
	ImageRef  string    `json:"image_ref"`
	Embedding []float32 `json:"embedding"`
}

// Submit handles POST /api/v1/detections. Multipart requests carry the image
// in the "file" field with an optional "image_ref" form value; JSON requests
// carry a precomputed embedding.
func (h *DetectionsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req recognition.DetectionRequest

	if isMultipart(r) {
		image, err := readUploadedImage(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "missing or unreadable file upload")
			return
		}
		req.Image = image
		req.ImageRef = r.FormValue("image_ref")
	} else {
		var body detectionJSONRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		if len(body.Embedding) == 0 {
			respondError(w, http.StatusBadRequest, "embedding is required")
			return
		}
		req.Embedding = body.Embedding
		req.ImageRef = body.ImageRef
	}

	result, err := h.svc.SubmitDetection(r.Context(), req)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
