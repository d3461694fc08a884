package uploads

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler provides Echo HTTP handlers for upload and download.
type Handler struct {
	store    FileStore
	maxBytes int64
}

// NewHandler creates a Handler over store. maxBytes bounds the accepted
// upload size.
func NewHandler(store FileStore, maxBytes int64) *Handler {
	return &Handler{store: store, maxBytes: maxBytes}
}

// RegisterRoutes mounts upload routes. Uploading requires a bearer token;
// serving a stored file does not, the random filename prefix is the only
// capability needed to fetch it.
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	authed.POST("/upload", h.handleUpload)
	public.GET("/files/:filename", h.handleServe)
}

func (h *Handler) handleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	if file.Filename == "" {
		return echo.NewHTTPError(http.StatusBadRequest, ErrMissingFileName.Error())
	}
	if !AllowedExtension(file.Filename) {
		return echo.NewHTTPError(http.StatusBadRequest, ErrExtensionNotAllowed.Error())
	}
	if file.Size > h.maxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, ErrFileTooLarge.Error())
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	stored := fmt.Sprintf("%s_%s", uuid.New().String(), SanitizeFilename(file.Filename))
	if err := h.store.Save(c.Request().Context(), stored, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store file")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"filename": stored,
		"url":      "/api/files/" + stored,
	})
}

func (h *Handler) handleServe(c echo.Context) error {
	filename := c.Param("filename")

	rc, err := h.store.Open(c.Request().Context(), filename)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrFileNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read file")
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return c.Stream(http.StatusOK, contentType, rc)
}
