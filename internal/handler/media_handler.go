package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"forms-service/internal/model"
	"forms-service/pkg/database"
	"forms-service/pkg/logger"
	"forms-service/pkg/storage"
	"forms-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MediaStorage is the object-store collaborator the upload handler talks
// to. The production implementation is the S3 store.
type MediaStorage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	ObjectURL(key string) string
}

var (
	mediaStore    MediaStorage
	maxUploadSize int64
)

// InitMediaHandler wires the object store and upload limit into the media handler
func InitMediaHandler(store MediaStorage, maxFileSize int64) {
	mediaStore = store
	maxUploadSize = maxFileSize
}

// UploadMedia accepts a multipart upload: the binary under "file" and
// optional JSON metadata under "_payload". The object is stored in the
// external object store before the media row is persisted, so a stored
// row always has a live URL.
func UploadMedia(c echo.Context) error {
	log := logger.FromEcho(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		log.Error("Missing file in upload request", zap.Error(err))
		prometheus.RecordUpload("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}

	if maxUploadSize > 0 && fileHeader.Size > maxUploadSize {
		log.Warn("Upload exceeds size limit",
			zap.Int64("size", fileHeader.Size),
			zap.Int64("limit", maxUploadSize))
		prometheus.RecordUpload("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file too large"})
	}

	var payload struct {
		Alt string `json:"alt"`
	}
	if raw := c.FormValue("_payload"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			log.Error("Invalid _payload metadata", zap.Error(err))
			prometheus.RecordUpload("rejected")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid _payload metadata"})
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		prometheus.RecordUpload("failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.MediaPrefix + "/" + uuid.New().String() + filepath.Ext(fileHeader.Filename)

	if err := mediaStore.Put(c.Request().Context(), key, contentType, src); err != nil {
		log.Error("Failed to store object", zap.String("key", key), zap.Error(err))
		prometheus.RecordUpload("failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "storage upload failed"})
	}

	media := model.Media{
		Filename: fileHeader.Filename,
		MimeType: contentType,
		Size:     fileHeader.Size,
		Key:      key,
		URL:      mediaStore.ObjectURL(key),
		Alt:      payload.Alt,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&media); result.Error != nil {
		log.Error("Failed to persist media record", zap.Error(result.Error))
		prometheus.RecordUpload("failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	log.Info("Media uploaded",
		zap.Uint("id", media.ID),
		zap.String("key", key),
		zap.Int64("size", media.Size))
	prometheus.RecordUpload("accepted")

	return c.JSON(http.StatusCreated, echo.Map{"doc": media})
}
