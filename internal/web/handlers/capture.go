package handlers

import (
	"io"
	"net/http"

	"github.com/classtrack/classtrack/internal/constants"
	"github.com/classtrack/classtrack/internal/extractor"
)

// CaptureHandler turns an uploaded image into a face encoding via the
// extractor service. It replaces direct webcam access: the browser captures
// the frame and posts it here.
type CaptureHandler struct {
	client *extractor.Client
}

// NewCaptureHandler creates a new capture handler.
func NewCaptureHandler(client *extractor.Client) *CaptureHandler {
	return &CaptureHandler{client: client}
}

// Capture handles POST /capture (multipart form, field "image").
func (h *CaptureHandler) Capture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBytes)
	if err := r.ParseMultipartForm(constants.MaxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	resized, err := extractor.ResizeImage(imageData, constants.MaxImageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	faces, err := h.client.ExtractFaces(r.Context(), resized)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "face extractor unavailable")
		return
	}
	if len(faces) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "no face detected, try again")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":       "face captured",
		"face_encoding": faces[0].Encoding,
		"faces_count":   len(faces),
	})
}
