package http

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/http/middleware"
	"complaint-service/internal/model"
	"complaint-service/internal/service"
)

// multipartOverhead is headroom on top of the file payloads for form fields and part headers.
const multipartOverhead = 1 << 20

type Handler struct {
	complaintService *service.ComplaintService
	zoneService      *service.ZoneService
	healthCheck      func(ctx context.Context) error
	maxFiles         int
	log              zerolog.Logger
}

func NewHandler(
	complaintService *service.ComplaintService,
	zoneService *service.ZoneService,
	healthCheck func(ctx context.Context) error,
	maxFiles int,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		complaintService: complaintService,
		zoneService:      zoneService,
		healthCheck:      healthCheck,
		maxFiles:         maxFiles,
		log:              log,
	}
}

func (h *Handler) health(c *gin.Context) {
	if h.healthCheck != nil {
		if err := h.healthCheck(c.Request.Context()); err != nil {
			h.log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listZones(c *gin.Context) {
	zones, err := h.zoneService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(zones))
}

func (h *Handler) createComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	files, closeFiles, err := h.readFiles(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer closeFiles()

	input := service.CreateComplaintInput{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Category:     model.ComplaintCategory(strings.ToUpper(strings.TrimSpace(c.PostForm("category")))),
		LocationNote: c.PostForm("location_note"),
	}
	if input.Latitude, err = parseOptionalFloat("latitude", c.PostForm("latitude")); err != nil {
		h.handleError(c, err)
		return
	}
	if input.Longitude, err = parseOptionalFloat("longitude", c.PostForm("longitude")); err != nil {
		h.handleError(c, err)
		return
	}

	detail, err := h.complaintService.Create(c.Request.Context(), principal, input, files)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(detail))
}

func (h *Handler) listComplaints(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseComplaintQuery(c)
	if err != nil {
		h.handleError(c, err)
		return
	}

	page, err := h.complaintService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(page))
}

func (h *Handler) complaintStats(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	stats, err := h.complaintService.Stats(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(stats))
}

func (h *Handler) getComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	detail, err := h.complaintService.GetDetail(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(detail))
}

func (h *Handler) updateComplaintStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	status := model.ComplaintStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	detail, err := h.complaintService.UpdateStatus(c.Request.Context(), principal, id, status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(detail))
}

func (h *Handler) addAttachments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	files, closeFiles, err := h.readFiles(c)
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer closeFiles()

	refs, err := h.complaintService.AddAttachments(c.Request.Context(), principal, id, files)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(refs))
}

func (h *Handler) getAttachment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid attachment id"))
		return
	}

	file, err := h.complaintService.GetAttachment(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.FileName))
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason, "field": validationErr.Field})
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(service.ErrPermissionDenied.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(service.ErrNotFound.Error()))
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrIntegrity):
		event := h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(c))
		if principal, ok := middleware.MustPrincipal(c); ok {
			event = event.Str("user_id", principal.UserID.String())
		}
		event.Msg("data integrity error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	default:
		h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

// readFiles opens the uploaded parts named files (or files[]). The returned func closes them.
func (h *Handler) readFiles(c *gin.Context) ([]service.FileUpload, func(), error) {
	noop := func() {}

	limit := int64(h.maxFiles)*int64(model.MaxAttachmentBytes+1) + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, noop, err
		}
		return nil, noop, &service.ValidationError{Field: "files", Reason: "malformed multipart body"}
	}

	headers := append(form.File["files"], form.File["files[]"]...)
	if len(headers) > h.maxFiles {
		return nil, noop, &service.ValidationError{
			Field:  "files",
			Reason: fmt.Sprintf("at most %d files are allowed per request", h.maxFiles),
		}
	}

	uploads := make([]service.FileUpload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, noop, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		uploads = append(uploads, service.FileUpload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		})
	}
	return uploads, closeAll, nil
}

func parseComplaintQuery(c *gin.Context) (service.ListComplaintsOptions, error) {
	var opts service.ListComplaintsOptions

	if statusParam := strings.TrimSpace(c.Query("status")); statusParam != "" {
		status := model.ComplaintStatus(strings.ToUpper(statusParam))
		opts.Status = &status
	}
	if zoneParam := strings.TrimSpace(c.Query("zone_id")); zoneParam != "" {
		v, err := strconv.ParseUint(zoneParam, 10, 32)
		if err != nil {
			return opts, &service.ValidationError{Field: "zone_id", Reason: "must be a positive integer"}
		}
		zoneID := uint(v)
		opts.ZoneID = &zoneID
	}
	if page := strings.TrimSpace(c.Query("page")); page != "" {
		v, err := strconv.Atoi(page)
		if err != nil {
			return opts, &service.ValidationError{Field: "page", Reason: "must be an integer"}
		}
		opts.Page = v
	}
	if size := strings.TrimSpace(c.Query("size")); size != "" {
		v, err := strconv.Atoi(size)
		if err != nil {
			return opts, &service.ValidationError{Field: "size", Reason: "must be an integer"}
		}
		opts.Size = v
	}
	return opts, nil
}

func parseOptionalFloat(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &service.ValidationError{Field: field, Reason: "must be a number"}
	}
	return &v, nil
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
