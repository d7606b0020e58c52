package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ja-rental/service-rental/internal/application"
	"github.com/ja-rental/service-rental/internal/common/apperror"
	"github.com/ja-rental/service-rental/internal/common/auth"
	"github.com/ja-rental/service-rental/internal/common/response"
	vehicleDomain "github.com/ja-rental/service-rental/internal/domain/vehicle"
)

const testIssuer = "ja-rental-test"

type vehicleStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*vehicleDomain.Vehicle
}

func (s *vehicleStore) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[id]
	if !ok {
		return nil, apperror.NewNotFoundError("Vehicle", id.String())
	}
	return v, nil
}

func (s *vehicleStore) List(_ context.Context, _ bool) ([]*vehicleDomain.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*vehicleDomain.Vehicle, 0, len(s.rows))
	for _, v := range s.rows {
		out = append(out, v)
	}
	return out, nil
}

func (s *vehicleStore) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[v.ID()] = v
	return nil
}

func (s *vehicleStore) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	return s.Save(ctx, v)
}

func (s *vehicleStore) SetAvailability(_ context.Context, _ uuid.UUID, _ vehicleDomain.Availability) error {
	return nil
}

func setupRouter(t *testing.T) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", testIssuer, time.Minute, time.Hour)
	router := gin.New()

	// Guard and validation paths never reach the booking service.
	NewBookingHandler(nil).RegisterRoutes(&router.RouterGroup, jwtManager)
	NewAdminBookingHandler(nil, nil).RegisterRoutes(&router.RouterGroup, jwtManager)

	store := &vehicleStore{rows: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
	NewVehicleHandler(application.NewVehicleService(store, zap.NewNop())).RegisterRoutes(&router.RouterGroup, jwtManager)
	return router, jwtManager
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, m *auth.JWTManager, role auth.Role) string {
	t.Helper()
	token, err := m.GenerateAccessToken(uuid.New(), role)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestBookingRoutes_RequireToken(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/v1/bookings", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingRoutes_RoleChecks(t *testing.T) {
	router, jwt := setupRouter(t)
	staff := tokenFor(t, jwt, auth.RoleStaff)
	customer := tokenFor(t, jwt, auth.RoleCustomer)
	id := uuid.NewString()

	// Staff cannot act as a customer.
	w := doRequest(t, router, http.MethodPut, "/api/v1/bookings/"+id+"/cancel", staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Customers cannot reach staff routes.
	w = doRequest(t, router, http.MethodPut, "/api/v1/admin/bookings/"+id+"/confirm-cancellation", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Raw edits are admin only.
	w = doRequest(t, router, http.MethodPatch, "/api/v1/admin/bookings/"+id, staff, map[string]string{"status": "Completed"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doRequest(t, router, http.MethodDelete, "/api/v1/admin/bookings/"+id, staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBookingRoutes_ValidateInput(t *testing.T) {
	router, jwt := setupRouter(t)
	customer := tokenFor(t, jwt, auth.RoleCustomer)
	staff := tokenFor(t, jwt, auth.RoleStaff)

	w := doRequest(t, router, http.MethodPut, "/api/v1/bookings/not-a-uuid/cancel", customer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/bookings", customer, map[string]string{"purpose": "Trip"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperror.KindInvalidArgument, env.Error.Kind)

	w = doRequest(t, router, http.MethodPut, "/api/v1/bookings/"+uuid.NewString()+"/extend", customer, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPut, "/api/v1/admin/bookings/"+uuid.NewString()+"/payment-received", staff, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/admin/bookings/"+uuid.NewString()+"/payments", staff, map[string]int{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVehicleRoutes(t *testing.T) {
	router, jwt := setupRouter(t)
	staff := tokenFor(t, jwt, auth.RoleStaff)
	customer := tokenFor(t, jwt, auth.RoleCustomer)

	w := doRequest(t, router, http.MethodPost, "/api/v1/admin/vehicles", customer, map[string]interface{}{
		"plate_number": "ABC 123", "daily_rate": 1500,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, router, http.MethodPost, "/api/v1/admin/vehicles", staff, map[string]interface{}{
		"plate_number": "abc 123", "brand": "Toyota", "model": "Vios", "daily_rate": 1500,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data application.VehicleDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "ABC 123", created.Data.PlateNumber)

	w = doRequest(t, router, http.MethodGet, "/api/v1/vehicles/"+created.Data.ID.String(), customer, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/api/v1/vehicles/"+uuid.NewString(), customer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, apperror.KindNotFound, env.Error.Kind)

	w = doRequest(t, router, http.MethodPut, "/api/v1/admin/vehicles/"+created.Data.ID.String()+"/rate", staff, map[string]int{"daily_rate": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
