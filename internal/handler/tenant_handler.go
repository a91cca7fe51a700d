package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"forms-service/internal/model"
	"forms-service/internal/tenancy"
	"forms-service/pkg/database"
	"forms-service/pkg/logger"
	"forms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ResolveSite resolves the tenant for the inbound Host header. An
// unregistered host is a recoverable, user-visible condition: the caller
// renders a tenant-not-found state, so this returns a plain 404 body
// rather than failing the request pipeline.
func ResolveSite(c echo.Context) error {
	log := logger.FromEcho(c)

	host := normalizeHost(c.Request().Host)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	result := database.GetDB().Where("lower(domain) = ?", host).First(&tenant)
	if result.Error != nil {
		log.Info("Tenant not found for host", zap.String("host", host))
		prometheus.RecordHostLookup("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	prometheus.RecordHostLookup("found")
	return c.JSON(http.StatusOK, echo.Map{
		"tenant": echo.Map{
			"id":     tenant.ID,
			"name":   tenant.Name,
			"domain": tenant.Domain,
		},
	})
}

// normalizeHost strips any port suffix and lowercases the host so that dev
// hosts like Example.org:3000 match the registered bare domain
func normalizeHost(host string) string {
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return strings.ToLower(host)
}

// CreateTenant handles tenant creation. Only admins provision tenants.
func CreateTenant(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.IsAdmin() {
		log.Warn("Non-admin tenant creation attempt", zap.Uint("user_id", actor.UserID))
		prometheus.RecordAccessDenied("tenants", "create")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Name     string               `json:"name"`
		Domain   string               `json:"domain"`
		Settings model.TenantSettings `json:"settings"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Domain == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and domain are required"})
	}

	if req.Settings.MaxSubmissionsPerForm != nil && *req.Settings.MaxSubmissionsPerForm < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_submissions_per_form must not be negative"})
	}

	tenant := model.Tenant{
		Name:     req.Name,
		Domain:   strings.ToLower(req.Domain),
		Settings: req.Settings,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&tenant); result.Error != nil {
		// Domain uniqueness is enforced by the persistence layer
		log.Error("Failed to create tenant", zap.String("domain", tenant.Domain), zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"error": "domain already registered"})
	}

	log.Info("Tenant created",
		zap.String("name", tenant.Name),
		zap.String("domain", tenant.Domain),
		zap.Uint("id", tenant.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  tenant,
	})
}

// GetTenant retrieves tenant details within tenant scope
func GetTenant(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		log.Error("Tenant not found", zap.Uint64("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	if !tenancy.CanRead(actor, &tenant) {
		log.Warn("Cross-tenant tenant access attempt",
			zap.Uint("requesting_user_id", actor.UserID),
			zap.Uint64("tenant_id", id))
		prometheus.RecordAccessDenied("tenants", "read")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	return c.JSON(http.StatusOK, tenant)
}

// ListTenants lists tenants: all of them for admins, the caller's own
// tenant for everyone else
func ListTenants(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB()
	if !actor.IsAdmin() {
		if actor.TenantID == nil {
			return c.JSON(http.StatusOK, []model.Tenant{})
		}
		query = query.Where("id = ?", *actor.TenantID)
	}

	var tenants []model.Tenant
	if result := query.Find(&tenants); result.Error != nil {
		log.Error("Failed to retrieve tenants", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tenants"})
	}

	return c.JSON(http.StatusOK, tenants)
}

// UpdateTenant updates tenant fields within tenant scope
func UpdateTenant(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	if !tenancy.CanUpdate(actor, &tenant) {
		prometheus.RecordAccessDenied("tenants", "update")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req struct {
		Name     *string               `json:"name"`
		Domain   *string               `json:"domain"`
		Settings *model.TenantSettings `json:"settings"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name != nil {
		tenant.Name = *req.Name
	}
	if req.Domain != nil {
		// Only admins may move a tenant to a different domain
		if !actor.IsAdmin() {
			prometheus.RecordAccessDenied("tenants", "update")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		tenant.Domain = strings.ToLower(*req.Domain)
	}
	if req.Settings != nil {
		if req.Settings.MaxSubmissionsPerForm != nil && *req.Settings.MaxSubmissionsPerForm < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_submissions_per_form must not be negative"})
		}
		tenant.Settings = *req.Settings
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&tenant); result.Error != nil {
		log.Error("Failed to update tenant", zap.Uint("id", tenant.ID), zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"error": "tenant update failed"})
	}

	log.Info("Tenant updated", zap.Uint("id", tenant.ID))
	return c.JSON(http.StatusOK, tenant)
}

// DeleteTenant removes a tenant. Admin only; tenants are never
// auto-deleted by the platform itself.
func DeleteTenant(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.IsAdmin() {
		prometheus.RecordAccessDenied("tenants", "delete")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.Tenant{}, id)
	if result.Error != nil {
		log.Error("Failed to delete tenant", zap.Uint64("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	log.Info("Tenant deleted", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant deleted successfully"})
}
