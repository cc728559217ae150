package papers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"research-backend/internal/shared/server/middleware"
	"research-backend/internal/shared/server/respond"
)

const maxUploadSize = 25 << 20 // 25MB, same cap as mailbox attachments

// Handler wires HTTP handlers to the papers service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches paper routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/papers", h.upload)
	rg.GET("/papers", h.list)
	rg.GET("/papers/:id", h.get)
	rg.PUT("/papers/:id", h.update)
	rg.DELETE("/papers/:id", h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "only PDF files are allowed", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	paper, created, err := h.Svc.Upload(c.Request.Context(), userID, fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotPDF), errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrStorageUnavailable):
			respond.Error(c, http.StatusBadGateway, "storage_error", "failed to store file", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload paper", nil)
		}
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respond.JSON(c, status, ToResponse(paper))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 100 {
		limit = 100
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list papers", nil)
		}
		return
	}

	resp := make([]PaperResponse, 0, len(items))
	for _, paper := range items {
		resp = append(resp, ToResponse(paper))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	paper, signedURL, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleAccessErr(c, err, "failed to fetch paper")
		return
	}

	resp := ToResponse(paper)
	resp.PDFURL = signedURL
	respond.JSON(c, http.StatusOK, resp)
}

type updateRequest struct {
	Title  *string `json:"title"`
	Shared *bool   `json:"shared"`
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	paper, err := h.Svc.UpdateMeta(c.Request.Context(), userID, c.Param("id"), req.Title, req.Shared)
	if err != nil {
		handleAccessErr(c, err, "failed to update paper")
		return
	}
	respond.JSON(c, http.StatusOK, ToResponse(paper))
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleAccessErr(c, err, "failed to delete paper")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func handleAccessErr(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "paper not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
	case errors.Is(err, ErrStorageUnavailable):
		respond.Error(c, http.StatusBadGateway, "storage_error", "object storage unavailable", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
