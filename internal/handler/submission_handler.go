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

// CreateSubmission accepts a form submission from an anonymous or
// authenticated submitter. The stamping hook resolves the effective tenant
// before anything is validated or persisted; an unresolvable tenant
// rejects the whole write so no partially-tenanted record can exist.
func CreateSubmission(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)

	raw := map[string]interface{}{}
	if err := c.Bind(&raw); err != nil {
		log.Error("Failed to parse submission request", zap.Error(err))
		prometheus.RecordSubmission("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	raw = tenancy.BeforeValidate(actor, raw)
	resolved, source := tenancy.ResolveTenantIDSource(actor, raw["tenant"])
	prometheus.RecordTenantResolution(string(source))
	if resolved == nil {
		log.Warn("Submission with unresolvable tenant")
		prometheus.RecordSubmission("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant could not be resolved"})
	}

	// The form reference may arrive as a number or a numeric string
	if id, ok := tenancy.NormalizeID(raw["form"]); ok {
		raw["form"] = id
	}

	delete(raw, "id")
	submission, err := decodeSubmission(raw)
	if err != nil {
		log.Error("Failed to decode submission payload", zap.Error(err))
		prometheus.RecordSubmission("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid submission payload"})
	}

	if submission.FormID == 0 {
		prometheus.RecordSubmission("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "form is required"})
	}

	// The form must exist within the stamped tenant
	var form model.Form
	result := database.GetDB().Where("id = ? AND tenant_id = ?", submission.FormID, submission.TenantID).First(&form)
	if result.Error != nil {
		log.Warn("Submission for unknown form/tenant pair",
			zap.Uint("form_id", submission.FormID),
			zap.Uint("tenant_id", submission.TenantID))
		prometheus.RecordSubmission("rejected")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
	}

	if err := validateRequiredFields(&form, submission.SubmissionData); err != "" {
		prometheus.RecordSubmission("rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err})
	}

	// Tenant settings may cap submissions per form
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, submission.TenantID); result.Error == nil {
		if limit := tenant.Settings.MaxSubmissionsPerForm; limit != nil {
			var count int64
			database.GetDB().Model(&model.FormSubmission{}).
				Where("form_id = ?", submission.FormID).Count(&count)
			if count >= int64(*limit) {
				log.Warn("Submission limit reached",
					zap.Uint("form_id", submission.FormID),
					zap.Int("limit", *limit))
				prometheus.RecordSubmission("rejected")
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "submission limit reached for this form"})
			}
		}
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(submission); result.Error != nil {
		log.Error("Failed to create submission", zap.Error(result.Error))
		prometheus.RecordSubmission("failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submission failed"})
	}

	log.Info("Submission created",
		zap.Uint("id", submission.ID),
		zap.Uint("form_id", submission.FormID),
		zap.Uint("tenant_id", submission.TenantID))
	prometheus.RecordSubmission("accepted")

	return c.JSON(http.StatusCreated, echo.Map{
		"doc": echo.Map{
			"id":             submission.ID,
			"form":           echo.Map{"id": form.ID, "confirmationMessage": form.ConfirmationMessage},
			"tenant":         submission.TenantID,
			"submissionData": submission.SubmissionData,
			"file":           submission.FileID,
			"created_at":     submission.CreatedAt,
		},
	})
}

// validateRequiredFields checks that every required form field carries a
// non-empty value. Returns an error message, empty when valid.
func validateRequiredFields(form *model.Form, data model.SubmissionData) string {
	values := make(map[string]string, len(data))
	for _, v := range data {
		values[v.Field] = v.Value
	}
	for _, f := range form.Fields {
		if f.Required && values[f.Name] == "" {
			return "missing required field: " + f.Name
		}
	}
	return ""
}

// ListSubmissions lists submissions within the caller's tenant scope
func ListSubmissions(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := tenancy.ReadFilter(actor).Scope(database.GetDB())
	if formID := c.QueryParam("form"); formID != "" {
		query = query.Where("form_id = ?", formID)
	}

	var submissions []model.FormSubmission
	if result := query.Find(&submissions); result.Error != nil {
		log.Error("Failed to retrieve submissions", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve submissions"})
	}

	return c.JSON(http.StatusOK, submissions)
}

// GetSubmission retrieves one submission within tenant scope
func GetSubmission(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid submission ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var submission model.FormSubmission
	if result := database.GetDB().First(&submission, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "submission not found"})
	}

	if !tenancy.CanRead(actor, &submission) {
		log.Warn("Cross-tenant submission access attempt",
			zap.Uint("requesting_user_id", actor.UserID),
			zap.Uint("submission_tenant_id", submission.TenantID))
		prometheus.RecordAccessDenied("form-submissions", "read")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	return c.JSON(http.StatusOK, submission)
}

// DeleteSubmission removes a submission within tenant scope
func DeleteSubmission(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid submission ID"})
	}

	var submission model.FormSubmission
	if result := database.GetDB().First(&submission, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "submission not found"})
	}

	if !tenancy.CanDelete(actor, &submission) {
		prometheus.RecordAccessDenied("form-submissions", "delete")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Delete(&submission); result.Error != nil {
		log.Error("Failed to delete submission", zap.Uint("id", submission.ID), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submission deletion failed"})
	}

	log.Info("Submission deleted", zap.Uint("id", submission.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Submission deleted successfully"})
}

// decodeSubmission converts a stamped write payload into a submission model
func decodeSubmission(raw map[string]interface{}) (*model.FormSubmission, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var submission model.FormSubmission
	if err := json.Unmarshal(buf, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}
