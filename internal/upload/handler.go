package upload

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shopworks/storeapi/internal/httputil"
	"github.com/shopworks/storeapi/internal/logging"
)

// chunkSize is the copy buffer used when spooling the upload to disk.
const chunkSize = 1 << 20 // 1 MiB

// maxUploadSize caps a single multipart upload.
const maxUploadSize = 100 << 20 // 100 MiB

// UploadResponse describes a completed upload.
type UploadResponse struct {
	Detail  string `json:"detail"`
	FileURL string `json:"file_url"`
}

// Handler contains the file upload HTTP handler
type Handler struct {
	uploader Uploader
	logger   *logging.Logger
}

func NewHandler(uploader Uploader, logger *logging.Logger) *Handler {
	return &Handler{uploader: uploader, logger: logger}
}

// Upload accepts a multipart file, spools it to a temporary file in 1 MiB
// chunks, then uploads it to object storage
// @Summary      Upload a file
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "File to upload"
// @Success      201 {object} UploadResponse
// @Failure      500 {object} httputil.ErrorResponse "Upload failed"
// @Router       /upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("invalid upload request", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid upload request", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)

	tempFile, err := os.CreateTemp("", "upload-*")
	if err != nil {
		logger.Error("failed to create temporary file", "error", err.Error())
		httputil.RespondErrorWithCode(w, "file upload failed", httputil.CodeUploadFailed, http.StatusInternalServerError)
		return
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	logger.Debug("spooling upload to temporary file", "path", tempFile.Name(), "filename", filename)

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(tempFile, file, buf); err != nil {
		logger.Error("failed to spool upload", "error", err.Error())
		httputil.RespondErrorWithCode(w, "file upload failed", httputil.CodeUploadFailed, http.StatusInternalServerError)
		return
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		logger.Error("failed to rewind temporary file", "error", err.Error())
		httputil.RespondErrorWithCode(w, "file upload failed", httputil.CodeUploadFailed, http.StatusInternalServerError)
		return
	}

	key := StorageKey(filename)
	fileURL, err := h.uploader.Upload(r.Context(), key, tempFile)
	if err != nil {
		logger.Error("failed to upload file to storage", "error", err.Error())
		httputil.RespondErrorWithCode(w, "file upload failed", httputil.CodeUploadFailed, http.StatusInternalServerError)
		return
	}

	logger.Info("file uploaded", "key", key, "filename", filename)

	httputil.RespondJSON(w, UploadResponse{
		Detail:  fmt.Sprintf("Successfully uploaded %s", filename),
		FileURL: fileURL,
	}, http.StatusCreated)
}
