package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/SkyDragon00/ProyectoFinalProcesos/internal/recognition"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// IdentitiesHandler manages gallery enrollment over HTTP.
type IdentitiesHandler struct {
	svc *recognition.Service
}

// NewIdentitiesHandler creates an identities handler.
func NewIdentitiesHandler(svc *recognition.Service) *IdentitiesHandler {
	return &IdentitiesHandler{svc: svc}
}

// enrollJSONRequest is the JSON alternative to a multipart enrollment.
type enrollJSONRequest struct {
	Name      string    `json:"name"`
	Embedding []float32 `json:"embedding"`
}

// identityView is the API representation of an enrolled identity.
type identityView struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	References int       `json:"references"`
	CreatedAt  time.Time `json:"created_at"`
}

// Enroll handles POST /api/v1/identities. Multipart requests carry a "name"
// form value and the reference photo in "file"; JSON requests carry a
// precomputed embedding.
func (h *IdentitiesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req recognition.EnrollRequest

	if isMultipart(r) {
		image, err := readUploadedImage(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "missing or unreadable file upload")
			return
		}
		req.Image = image
		req.Name = r.FormValue("name")
	} else {
		var body enrollJSONRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		req.Name = body.Name
		req.Embedding = body.Embedding
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := h.svc.EnrollIdentity(r.Context(), req)
	if err != nil {
		respondCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// List handles GET /api/v1/identities.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities := h.svc.Identities()
	views := make([]identityView, 0, len(identities))
	for i := range identities {
		views = append(views, identityView{
			ID:         identities[i].ID,
			Name:       identities[i].Name,
			References: len(identities[i].Embeddings),
			CreatedAt:  identities[i].CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"identities": views})
}

// Remove handles DELETE /api/v1/identities/{id}.
func (h *IdentitiesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid identity id")
		return
	}

	if err := h.svc.RemoveIdentity(r.Context(), id); err != nil {
		respondCoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
