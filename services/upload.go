package services

import (
	"errors"
	"net/http"

	"dietcoach/storage"
	"dietcoach/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead is the room left for multipart headers and boundaries on
// top of MaxUploadBytes.
const multipartOverhead = 64 << 10

// storeUpload reads the multipart "file" field and stores it on the image
// host. It writes the error response itself.
func (a *API) storeUpload(c *gin.Context) (*storage.Object, bool) {
	if a.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Uploads are not configured"})
		return nil, false
	}
	limit := a.MaxUploadBytes + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || c.Request.ContentLength > limit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return nil, false
		}
		validation.Abort(c, validation.Issue{Field: "file", Message: "Required"})
		return nil, false
	}
	if fh.Size > a.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, false
	}
	defer f.Close()

	img, err := storage.ReadImage(f, a.MaxUploadBytes)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return nil, false
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only JPEG, PNG, WEBP and GIF images are allowed"})
		return nil, false
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, false
	}

	obj, err := a.Uploader.Upload(c.Request.Context(), img)
	if err != nil {
		zap.L().Error("upload failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to upload file"})
		return nil, false
	}
	zap.L().Info("file uploaded", zap.String("key", obj.Key), zap.String("content_type", img.ContentType))
	return obj, true
}

func (a *API) Upload(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	obj, ok := a.storeUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, obj)
}

func (a *API) DeleteUpload(c *gin.Context) {
	var in validation.DeleteUploadInput
	if !validation.BindJSON(c, &in) {
		return
	}
	if _, ok := currentUser(c); !ok {
		return
	}
	if a.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Uploads are not configured"})
		return
	}
	if err := a.Uploader.Delete(c.Request.Context(), in.Key); err != nil {
		zap.L().Error("delete upload failed", zap.String("key", in.Key), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to delete file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted"})
}
