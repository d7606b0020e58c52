package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ja-rental/service-rental/internal/application"
	"github.com/ja-rental/service-rental/internal/common/auth"
	"github.com/ja-rental/service-rental/internal/common/middleware"
	"github.com/ja-rental/service-rental/internal/common/response"
)

// AdminBookingHandler handles staff HTTP requests for booking management.
type AdminBookingHandler struct {
	service    *application.BookingService
	reconciler *application.Reconciler
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService, reconciler *application.Reconciler) *AdminBookingHandler {
	return &AdminBookingHandler{service: service, reconciler: reconciler}
}

// RegisterRoutes registers staff booking routes. Raw edits, deletes and
// maintenance jobs are limited to admins.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	staffRole := middleware.RequireRole(auth.RoleStaff, auth.RoleAdmin)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, staffRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.GET("/bookings/:id/history", h.BookingHistory)

		admin.PUT("/bookings/:id/confirm-cancellation", h.ConfirmCancellation)
		admin.PUT("/bookings/:id/reject-cancellation", h.RejectCancellation)
		admin.PUT("/bookings/:id/admin-cancel", h.AdminCancel)
		admin.PUT("/bookings/:id/confirm-extension", h.ConfirmExtension)
		admin.PUT("/bookings/:id/reject-extension", h.RejectExtension)
		admin.PUT("/bookings/:id/payment-received", h.SignalPaymentReceived)
		admin.PUT("/bookings/:id/confirm", h.ApplyConfirmation)
		admin.POST("/bookings/:id/payments", h.RecordPayment)
		admin.PUT("/bookings/:id/release", h.StartRental)
		admin.PUT("/bookings/:id/return", h.CompleteRental)

		admin.PATCH("/bookings/:id", adminRole, h.AdminUpdateBooking)
		admin.DELETE("/bookings/:id", adminRole, h.DeleteBooking)
		admin.POST("/bookings/backfill-payments", adminRole, h.BackfillPayments)
		admin.POST("/reconcile", adminRole, h.Reconcile)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// BookingHistory handles GET /api/v1/admin/bookings/:id/history.
func (h *AdminBookingHandler) BookingHistory(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	result, err := h.service.GetBookingHistory(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ConfirmCancellation handles PUT /api/v1/admin/bookings/:id/confirm-cancellation.
func (h *AdminBookingHandler) ConfirmCancellation(c *gin.Context) {
	h.staffAction(c, h.service.ConfirmCancellation)
}

// RejectCancellation handles PUT /api/v1/admin/bookings/:id/reject-cancellation.
func (h *AdminBookingHandler) RejectCancellation(c *gin.Context) {
	h.staffAction(c, h.service.RejectCancellation)
}

// AdminCancel handles PUT /api/v1/admin/bookings/:id/admin-cancel.
func (h *AdminBookingHandler) AdminCancel(c *gin.Context) {
	h.staffAction(c, h.service.AdminCancel)
}

// ConfirmExtension handles PUT /api/v1/admin/bookings/:id/confirm-extension.
func (h *AdminBookingHandler) ConfirmExtension(c *gin.Context) {
	bookingID, staffID, ok := h.target(c)
	if !ok {
		return
	}

	result, err := h.service.ConfirmExtension(c.Request.Context(), bookingID, staffID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RejectExtension handles PUT /api/v1/admin/bookings/:id/reject-extension.
func (h *AdminBookingHandler) RejectExtension(c *gin.Context) {
	bookingID, staffID, ok := h.target(c)
	if !ok {
		return
	}

	result, err := h.service.RejectExtension(c.Request.Context(), bookingID, staffID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SignalPaymentReceived handles PUT /api/v1/admin/bookings/:id/payment-received.
func (h *AdminBookingHandler) SignalPaymentReceived(c *gin.Context) {
	bookingID, staffID, ok := h.target(c)
	if !ok {
		return
	}

	var req application.PaymentSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SignalPaymentReceived(c.Request.Context(), bookingID, staffID, *req.Received)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ApplyConfirmation handles PUT /api/v1/admin/bookings/:id/confirm.
func (h *AdminBookingHandler) ApplyConfirmation(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	result, err := h.service.ApplyConfirmation(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RecordPayment handles POST /api/v1/admin/bookings/:id/payments.
func (h *AdminBookingHandler) RecordPayment(c *gin.Context) {
	bookingID, staffID, ok := h.target(c)
	if !ok {
		return
	}

	var req application.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RecordPayment(c.Request.Context(), bookingID, staffID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// StartRental handles PUT /api/v1/admin/bookings/:id/release.
func (h *AdminBookingHandler) StartRental(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	result, err := h.service.StartRental(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteRental handles PUT /api/v1/admin/bookings/:id/return.
func (h *AdminBookingHandler) CompleteRental(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	result, err := h.service.CompleteRental(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AdminUpdateBooking handles PATCH /api/v1/admin/bookings/:id.
func (h *AdminBookingHandler) AdminUpdateBooking(c *gin.Context) {
	bookingID, adminID, ok := h.target(c)
	if !ok {
		return
	}

	var req application.AdminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AdminUpdateBooking(c.Request.Context(), bookingID, adminID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteBooking handles DELETE /api/v1/admin/bookings/:id.
func (h *AdminBookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// BackfillPayments handles POST /api/v1/admin/bookings/backfill-payments.
func (h *AdminBookingHandler) BackfillPayments(c *gin.Context) {
	result, err := h.service.BackfillPlaceholderPayments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Reconcile handles POST /api/v1/admin/reconcile.
func (h *AdminBookingHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}

func (h *AdminBookingHandler) staffAction(c *gin.Context, action func(ctx context.Context, bookingID, staffID uuid.UUID) (*application.BookingDTO, error)) {
	bookingID, staffID, ok := h.target(c)
	if !ok {
		return
	}

	result, err := action(c.Request.Context(), bookingID, staffID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func (h *AdminBookingHandler) target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	staffID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	return bookingID, staffID, true
}
