package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/pharmaciedusoleil/portal/internal/core/prescriptions"
	"github.com/pharmaciedusoleil/portal/internal/models"
	"github.com/pharmaciedusoleil/portal/internal/services"
)

const uploadField = "files"

type PrescriptionHandler struct {
	workspaces *services.WorkspaceService
	maxBytes   int64
	log        *logrus.Entry
}

func NewPrescriptionHandler(workspaces *services.WorkspaceService, maxUploadMB int, log *logrus.Entry) *PrescriptionHandler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &PrescriptionHandler{workspaces: workspaces, maxBytes: int64(maxUploadMB) << 20, log: log}
}

type UploadResponse struct {
	Uploads []models.PrescriptionUpload `json:"uploads"`
	Skipped int                         `json:"skipped"`
}

// Upload accepts one or more prescription files (multipart field "files")
// and starts their review.
func (h *PrescriptionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(h.workspaces, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.ContentLength > h.maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no file in field \"files\"")
		return
	}

	files := make([]prescriptions.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid file")
			return
		}
		files = append(files, prescriptions.File{
			// Removes any path components
			Name:        filepath.Base(header.Filename),
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	uploadCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	accepted := ws.Prescriptions.Accept(uploadCtx, files)
	h.log.WithFields(logrus.Fields{"visitor": ws.VisitorID, "accepted": len(accepted), "received": len(files)}).Info("prescriptions received")
	writeJSON(w, http.StatusCreated, UploadResponse{Uploads: accepted, Skipped: len(files) - len(accepted)})
}

func (h *PrescriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(h.workspaces, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Prescriptions.List())
}

func (h *PrescriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(h.workspaces, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := ws.Prescriptions.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Order returns the WhatsApp link for ordering an approved prescription.
func (h *PrescriptionHandler) Order(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(h.workspaces, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	link, err := ws.Prescriptions.OrderLink(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}

// File streams the staged prescription back to its owner.
func (h *PrescriptionHandler) File(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace(h.workspaces, r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	body, upload, err := ws.Prescriptions.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer body.Close()

	// SVG can carry script, so it is never rendered inline.
	disposition := "inline"
	if upload.ContentType == "image/svg+xml" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", upload.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, upload.FileName))
	if _, err := io.Copy(w, body); err != nil {
		h.log.WithError(err).WithField("upload", upload.ID).Warn("streaming prescription failed")
	}
}
