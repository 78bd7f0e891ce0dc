package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/moments/internal/ingest"
	"github.com/your-org/moments/internal/models"
	"github.com/your-org/moments/internal/session"
	"github.com/your-org/moments/pkg/dto"
)

type MomentHandler struct {
	svc       *ingest.Service
	maxUpload int64
}

func NewMomentHandler(svc *ingest.Service, maxUploadMB int) *MomentHandler {
	return &MomentHandler{svc: svc, maxUpload: int64(maxUploadMB) << 20}
}

// Process stores a text note. Notes are complete on creation.
func (h *MomentHandler) Process(c *gin.Context) {
	var req dto.ProcessTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.svc.SubmitText(c.Request.Context(), session.From(c), req.Text)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyText) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toResponse(m))
}

// Upload accepts a multipart image and returns the pending record.
func (h *MomentHandler) Upload(c *gin.Context) {
	if c.Request.ContentLength > h.maxUpload+(1<<20) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+(1<<20))

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	m, err := h.svc.SubmitImage(c.Request.Context(), session.From(c), data, fh.Filename, c.PostForm("caption"))
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, toResponse(m))
}

func (h *MomentHandler) List(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	moments, err := h.svc.ListMoments(c.Request.Context(), session.From(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.MomentResponse, 0, len(moments))
	for i := range moments {
		resp = append(resp, toResponse(&moments[i]))
	}
	c.JSON(http.StatusOK, dto.MomentListResponse{Moments: resp, Total: len(resp)})
}

func (h *MomentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid moment id"})
		return
	}

	m, err := h.svc.GetMoment(c.Request.Context(), session.From(c), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "moment not found"})
		return
	}

	c.JSON(http.StatusOK, toResponse(m))
}

// Image serves the normalized JPEG of an image moment.
func (h *MomentHandler) Image(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid moment id"})
		return
	}

	data, err := h.svc.Image(c.Request.Context(), session.From(c), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch image"})
		return
	}
	if data == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return
	}

	c.Header("Cache-Control", "private, max-age=86400")
	c.Data(http.StatusOK, "image/jpeg", data)
}

func toResponse(m *models.Moment) dto.MomentResponse {
	resp := dto.MomentResponse{
		ID:               m.ID,
		Kind:             string(m.Kind),
		OriginalFilename: m.OriginalFilename,
		Caption:          m.Caption,
		Status:           string(m.Status),
		Summary:          m.Summary,
		Labels:           splitLabels(m.Labels),
		Enrichment:       m.Enrichment,
		RichMetadata:     m.RichMetadata,
		CreatedAt:        m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.Kind == models.MomentKindText {
		resp.Source = m.Source
	} else {
		resp.ImageURL = "/api/moments/" + m.ID.String() + "/image"
	}
	if m.TakenAt != nil {
		resp.TakenAt = m.TakenAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func splitLabels(s string) []string {
	out := []string{}
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
