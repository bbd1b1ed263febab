package controllers

import (
	"net/http"

	"github.com/civicpulse/backend/internal/services"
	"github.com/gin-gonic/gin"
)

const maxFilesPerUpload = 10

type MediaController struct {
	media *services.MediaService
}

func NewMediaController(media *services.MediaService) *MediaController {
	return &MediaController{media: media}
}

// Upload stores every multipart "files" part and returns their URLs in order.
func (mc *MediaController) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart form with files required"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	if len(files) > maxFilesPerUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many files"})
		return
	}

	actor := currentActor(c)
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read " + fh.Filename})
			return
		}
		url, err := mc.media.Upload(c.Request.Context(), actor, fh.Filename, f)
		f.Close()
		if err != nil {
			respondError(c, err, "media_controller")
			return
		}
		urls = append(urls, url)
	}

	c.JSON(http.StatusCreated, gin.H{"urls": urls})
}
