package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"forms-service/internal/model"
	"forms-service/internal/tenancy"
	"forms-service/pkg/database"
	"forms-service/pkg/logger"
	"forms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetPublicForm serves a form definition to the rendering client. The
// route is public, but the supplied tenant must match the form's tenant; a
// mismatch is reported as not-found so form ids don't leak across tenants.
func GetPublicForm(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordFormOperation("read")

	formID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form ID"})
	}

	tenantID, ok := tenancy.NormalizeID(c.QueryParam("tenant"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant parameter is required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var form model.Form
	result := database.GetDB().Where("id = ? AND tenant_id = ?", formID, tenantID).First(&form)
	if result.Error != nil {
		log.Info("Form not found for tenant",
			zap.Uint64("form_id", formID),
			zap.Uint("tenant_id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":                  form.ID,
		"title":               form.Title,
		"fields":              form.Fields,
		"hasAttachment":       form.HasAttachment,
		"hasAttatchmentLabel": form.HasAttatchmentLabel,
		"tenant":              form.TenantID,
	})
}

// CreateForm handles form creation by tenant admins. The stamping hook
// runs before any validation; a write whose tenant cannot be resolved is
// rejected outright.
func CreateForm(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordFormOperation("create")

	actor := currentActor(c)
	if !tenancy.CanCreate(actor) {
		prometheus.RecordAccessDenied("forms", "create")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	raw := map[string]interface{}{}
	if err := c.Bind(&raw); err != nil {
		log.Error("Failed to parse form creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	raw = tenancy.BeforeValidate(actor, raw)
	resolved, source := tenancy.ResolveTenantIDSource(actor, raw["tenant"])
	prometheus.RecordTenantResolution(string(source))
	if resolved == nil {
		// Fail closed: no partially-tenanted records
		log.Warn("Form write with unresolvable tenant", zap.Uint("user_id", actor.UserID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant could not be resolved"})
	}

	delete(raw, "id")
	form, err := decodeForm(raw)
	if err != nil {
		log.Error("Failed to decode form payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form payload"})
	}

	if form.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if form.Type == "" {
		form.Type = model.FormTypeContact
	}

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, form.TenantID); result.Error != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant not found"})
	}
	if !tenant.Settings.AllowsFormType(form.Type) {
		log.Warn("Form type not allowed for tenant",
			zap.String("type", form.Type),
			zap.Uint("tenant_id", tenant.ID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "form type not allowed for this tenant"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(form); result.Error != nil {
		log.Error("Failed to create form", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "form creation failed"})
	}

	log.Info("Form created",
		zap.String("title", form.Title),
		zap.Uint("id", form.ID),
		zap.Uint("tenant_id", form.TenantID))

	return c.JSON(http.StatusCreated, echo.Map{"doc": form})
}

// ListForms lists forms within the caller's tenant scope. The access
// filter is pushed into the query so cross-tenant rows never leave the
// database.
func ListForms(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordFormOperation("list")

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var forms []model.Form
	query := tenancy.ReadFilter(actor).Scope(database.GetDB())
	if result := query.Find(&forms); result.Error != nil {
		log.Error("Failed to retrieve forms", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve forms"})
	}

	return c.JSON(http.StatusOK, forms)
}

// UpdateForm updates a form within tenant scope
func UpdateForm(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordFormOperation("update")

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form ID"})
	}

	var form model.Form
	if result := database.GetDB().First(&form, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
	}

	if !tenancy.CanUpdate(actor, &form) {
		log.Warn("Cross-tenant form update attempt",
			zap.Uint("requesting_user_id", actor.UserID),
			zap.Uint("form_tenant_id", form.TenantID))
		prometheus.RecordAccessDenied("forms", "update")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	raw := map[string]interface{}{}
	if err := c.Bind(&raw); err != nil {
		log.Error("Failed to parse form update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// The hook keeps an already-correct tenant in place and blocks
	// non-admin payloads from moving the form to another tenant
	raw = tenancy.BeforeValidate(actor, raw)
	delete(raw, "id")

	patch, err := decodeForm(raw)
	if err != nil {
		log.Error("Failed to decode form payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form payload"})
	}

	if patch.Title != "" {
		form.Title = patch.Title
	}
	if patch.Type != "" {
		var tenant model.Tenant
		if result := database.GetDB().First(&tenant, form.TenantID); result.Error == nil {
			if !tenant.Settings.AllowsFormType(patch.Type) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "form type not allowed for this tenant"})
			}
		}
		form.Type = patch.Type
	}
	if _, ok := raw["fields"]; ok {
		form.Fields = patch.Fields
	}
	if _, ok := raw["hasAttachment"]; ok {
		form.HasAttachment = patch.HasAttachment
	}
	if _, ok := raw["hasAttatchmentLabel"]; ok {
		form.HasAttatchmentLabel = patch.HasAttatchmentLabel
	}
	if _, ok := raw["confirmationMessage"]; ok {
		form.ConfirmationMessage = patch.ConfirmationMessage
	}
	if patch.TenantID != 0 {
		form.TenantID = patch.TenantID
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&form); result.Error != nil {
		log.Error("Failed to update form", zap.Uint("id", form.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "form update failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"doc": form})
}

// DeleteForm removes a form within tenant scope
func DeleteForm(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordFormOperation("delete")

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form ID"})
	}

	var form model.Form
	if result := database.GetDB().First(&form, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
	}

	if !tenancy.CanDelete(actor, &form) {
		prometheus.RecordAccessDenied("forms", "delete")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Delete(&form); result.Error != nil {
		log.Error("Failed to delete form", zap.Uint("id", form.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "form deletion failed"})
	}

	log.Info("Form deleted", zap.Uint("id", form.ID), zap.Uint("tenant_id", form.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Form deleted successfully"})
}

// decodeForm converts a stamped write payload into a form model
func decodeForm(raw map[string]interface{}) (*model.Form, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var form model.Form
	if err := json.Unmarshal(buf, &form); err != nil {
		return nil, err
	}
	return &form, nil
}
