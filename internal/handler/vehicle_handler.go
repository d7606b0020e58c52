package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ja-rental/service-rental/internal/application"
	"github.com/ja-rental/service-rental/internal/common/auth"
	"github.com/ja-rental/service-rental/internal/common/middleware"
	"github.com/ja-rental/service-rental/internal/common/response"
)

// VehicleHandler handles HTTP requests for the vehicle directory.
type VehicleHandler struct {
	service *application.VehicleService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(service *application.VehicleService) *VehicleHandler {
	return &VehicleHandler{service: service}
}

// RegisterRoutes registers the browse routes for any signed-in actor and the
// maintenance routes for staff.
func (h *VehicleHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	staffRole := middleware.RequireRole(auth.RoleStaff, auth.RoleAdmin)

	vehicles := r.Group("/api/v1/vehicles")
	vehicles.Use(authMW)
	{
		vehicles.GET("", h.ListVehicles)
		vehicles.GET("/:id", h.GetVehicle)
	}

	admin := r.Group("/api/v1/admin/vehicles")
	admin.Use(authMW, staffRole)
	{
		admin.POST("", h.CreateVehicle)
		admin.GET("", h.ListVehicles)
		admin.GET("/:id", h.GetVehicle)
		admin.PUT("/:id/rate", h.UpdateDailyRate)
	}
}

// CreateVehicle registers a vehicle.
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req application.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListVehicles returns the directory. ?available=true limits it to free vehicles.
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	onlyAvailable := c.Query("available") == "true"

	result, err := h.service.ListVehicles(c.Request.Context(), onlyAvailable)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetVehicle returns a single vehicle by ID.
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	result, err := h.service.GetVehicle(c.Request.Context(), vehicleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateDailyRate changes a vehicle's daily rate.
func (h *VehicleHandler) UpdateDailyRate(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vehicle ID")
		return
	}

	var req application.UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateDailyRate(c.Request.Context(), vehicleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
