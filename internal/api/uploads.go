package api

import (
	"net/http"

	"github.com/mithaiwala/sweetshop/internal/imaging"
	"github.com/mithaiwala/sweetshop/internal/upload"
)

// maxUploadBytes caps the size of an uploaded image.
const maxUploadBytes = 5 << 20

// UploadsHandler handles catalog image uploads.
type UploadsHandler struct {
	Uploads *upload.Store
}

// Upload handles POST /api/uploads. The image is normalized (format sniffed,
// downscaled, re-encoded) before it reaches the upload store; the returned
// url is the opaque reference the catalog stores.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	data, err := imaging.Normalize(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref, err := h.Uploads.Save(data, ".jpg")
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]string{"url": ref})
}
