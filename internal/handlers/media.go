package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kebisafe/kebisafe/internal/models"
	"github.com/kebisafe/kebisafe/internal/service"
)

type mediaResponse struct {
	HashID       string    `json:"hashId"`
	Extension    string    `json:"extension"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Filesize     int64     `json:"filesize"`
	Comment      *string   `json:"comment,omitempty"`
	IsPrivate    bool      `json:"isPrivate"`
	HasThumbnail bool      `json:"hasThumbnail"`
	Uploaded     time.Time `json:"uploaded"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
}

func (h HandlerSet) mediaResponse(m models.Media) mediaResponse {
	base := strings.TrimSuffix(h.cfg.PublicURL, "/")

	resp := mediaResponse{
		HashID:       m.HashID,
		Extension:    m.Extension,
		Width:        m.Width,
		Height:       m.Height,
		Filesize:     m.Filesize,
		Comment:      m.Comment,
		IsPrivate:    m.IsPrivate,
		HasThumbnail: m.HasThumbnail,
		Uploaded:     m.Uploaded,
		URL:          fmt.Sprintf("%s/media/%s", base, m.OriginalName()),
	}
	if m.HasThumbnail {
		resp.ThumbnailURL = fmt.Sprintf("%s/media/thumbnails/%s", base, m.ThumbnailName())
	} else {
		// No derived thumbnail; the original stands in.
		resp.ThumbnailURL = resp.URL
	}
	return resp
}

func (h HandlerSet) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrDecode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_media"})
	case errors.Is(err, models.ErrMediaNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}

func (h HandlerSet) UploadMedia(c *gin.Context) {
	caller := h.caller(c)
	if !caller.Owner {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.library.Authorize(c.Request.Context(), caller); err != nil {
		h.renderError(c, err)
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	input := service.IngestInput{
		Data:    data,
		Private: parseBool(c.PostForm("private")),
	}
	if comment := c.PostForm("comment"); comment != "" {
		input.Comment = &comment
	}

	media, created, err := h.ingestor.Ingest(c.Request.Context(), input)
	if err != nil {
		h.renderError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"media": h.mediaResponse(media)})
}

func (h HandlerSet) ListMedia(c *gin.Context) {
	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cursor"})
			return
		}
		before = &parsed
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	list, err := h.library.List(c.Request.Context(), h.caller(c), before, limit)
	if err != nil {
		h.renderError(c, err)
		return
	}

	responses := make([]mediaResponse, 0, len(list))
	for _, m := range list {
		responses = append(responses, h.mediaResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"media": responses})
}

func (h HandlerSet) GetMedia(c *gin.Context) {
	media, err := h.library.View(c.Request.Context(), h.caller(c), c.Param("hashID"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": h.mediaResponse(media)})
}

type patchRequest struct {
	Comment   *string `json:"comment" form:"comment"`
	IsPrivate *bool   `json:"isPrivate" form:"is_private"`
}

func (h HandlerSet) PatchMedia(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
		return
	}

	media, err := h.library.Update(c.Request.Context(), h.caller(c), c.Param("hashID"), models.MediaPatch{
		Comment:   req.Comment,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": h.mediaResponse(media)})
}

func (h HandlerSet) DeleteMedia(c *gin.Context) {
	if err := h.library.Delete(c.Request.Context(), h.caller(c), c.Param("hashID")); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) ServeOriginal(c *gin.Context) {
	filename := c.Param("filename")

	data, media, err := h.library.Original(c.Request.Context(), h.caller(c), filename)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if parseBool(c.Query("download")) {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", media.OriginalName()))
	}
	c.Data(http.StatusOK, mimeForExtension(media.Extension), data)
}

func (h HandlerSet) ServeThumbnail(c *gin.Context) {
	data, _, err := h.library.Thumbnail(c.Request.Context(), h.caller(c), c.Param("filename"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

func mimeForExtension(extension string) string {
	switch extension {
	case "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

func parseBool(raw string) bool {
	value, err := strconv.ParseBool(raw)
	return err == nil && value
}
