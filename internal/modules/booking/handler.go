package booking

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/export"
	"bookingcrm/internal/middleware"
	"bookingcrm/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the booking endpoints on rg, which must already
// run JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	b := rg.Group("/booking")
	b.GET("/bookings/filter", h.Filter)
	b.POST("/", h.Create)
	b.PATCH("/editbooking/:id", h.Edit)
	b.GET("/dashboard", h.Dashboard)

	priv := b.Group("", middleware.PrivilegedOnly())
	priv.GET("/all", h.All)
	priv.GET("/trash", h.ListTrash)
	priv.PATCH("/trash/:id", h.Trash)
	priv.PATCH("/restore/:id", h.Restore)
	priv.DELETE("/deletebooking/:id", h.Purge)

	b.GET("/export", middleware.ExportOnly(), h.Export)

	u := rg.Group("/user")
	u.GET("/", h.SearchByPattern)
	u.GET("/bookings/:userId", h.ForUser)
	u.GET("/:id", h.GetByID)
}

func (h *Handler) Filter(c *gin.Context) {
	var in FilterInput
	if err := c.ShouldBindQuery(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	in.Page = parseIntDefault(c.Query("page"), 1)
	in.Limit = parseIntDefault(c.Query("limit"), 0)

	res, err := h.service.Filter(c.Request.Context(), middleware.SessionFrom(c), in)
	if err != nil {
		h.fail(c, err, "Failed to fetch bookings")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetByID(c *gin.Context) {
	b, err := h.service.GetByID(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch booking")
		return
	}
	c.JSON(http.StatusOK, []domain.Booking{*b})
}

func (h *Handler) SearchByPattern(c *gin.Context) {
	list, err := h.service.SearchByPattern(c.Request.Context(), middleware.SessionFrom(c), c.Query("pattern"))
	if err != nil {
		h.fail(c, err, "Failed to search bookings")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) All(c *gin.Context) {
	list, err := h.service.All(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.fail(c, err, "Failed to fetch bookings")
		return
	}
	c.JSON(http.StatusOK, AllBookingsResponse{AllBookings: list})
}

func (h *Handler) ForUser(c *gin.Context) {
	list, err := h.service.ForUser(c.Request.Context(), middleware.SessionFrom(c), c.Param("userId"))
	if err != nil {
		h.fail(c, err, "Failed to fetch bookings")
		return
	}
	c.JSON(http.StatusOK, AllBookingsResponse{AllBookings: list})
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), middleware.SessionFrom(c), req)
	if err != nil {
		h.fail(c, err, "Failed to create booking")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) Edit(c *gin.Context) {
	var req EditBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.Edit(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), req)
	if err != nil {
		h.fail(c, err, "Failed to update booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListTrash(c *gin.Context) {
	list, err := h.service.ListTrash(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.fail(c, err, "Failed to fetch trash")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) Trash(c *gin.Context) {
	if err := h.service.Trash(c.Request.Context(), middleware.SessionFrom(c), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to move booking to trash")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Booking moved to trash"})
}

func (h *Handler) Restore(c *gin.Context) {
	if err := h.service.Restore(c.Request.Context(), middleware.SessionFrom(c), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to restore booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Booking restored"})
}

func (h *Handler) Purge(c *gin.Context) {
	if err := h.service.Purge(c.Request.Context(), middleware.SessionFrom(c), c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Booking deleted permanently"})
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		h.fail(c, err, "Failed to build dashboard")
		return
	}
	response.Success(c, http.StatusOK, d)
}

func (h *Handler) Export(c *gin.Context) {
	sel := export.AllFields()
	if raw := strings.TrimSpace(c.Query("fields")); raw != "" {
		sel = export.SelectionOf(strings.Split(raw, ",")...)
	}

	data, err := h.service.ExportCSV(c.Request.Context(), middleware.SessionFrom(c), sel)
	if err != nil {
		h.fail(c, err, "Failed to export bookings")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.FullDatasetFilename+`"`)
	c.Data(http.StatusOK, export.ContentType+"; charset=utf-8", data)
}

// fail maps service errors to HTTP answers. Unknown errors are logged and
// reported as 500 with fallback as the message.
func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", verr.Fields)
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrAmountExceedsTotal):
		response.Error(c, http.StatusBadRequest, "AMOUNT_EXCEEDS_TOTAL", "Received amount cannot exceed total amount")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	case errors.Is(err, ErrNotTrashed):
		response.Error(c, http.StatusConflict, "NOT_IN_TRASH", "Booking must be in trash first")
	case errors.Is(err, ErrDuplicate):
		response.Error(c, http.StatusConflict, "DUPLICATE", "Booking already exists")
	case errors.Is(err, ErrNoData):
		response.Error(c, http.StatusNotFound, "NO_DATA", "No bookings found for download")
	default:
		_ = c.Error(err)
		log.Printf("booking_handler_error path=%s error=%q", c.FullPath(), err.Error())
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
