package handler

import (
	"net/http"
	"strconv"
	"time"

	"forms-service/internal/model"
	"forms-service/pkg/database"
	"forms-service/pkg/logger"
	"forms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Me returns the authenticated user's profile
func Me(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().Preload("Tenant").First(&user, actor.UserID); result.Error != nil {
		log.Error("User not found", zap.Uint("id", actor.UserID), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateUser updates a user profile. Users may update their own profile;
// admins may update anyone, including role and tenant assignment.
func UpdateUser(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	if uint(id) != actor.UserID && !actor.IsAdmin() {
		prometheus.RecordAccessDenied("users", "update")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var user model.User
	if result := database.GetDB().First(&user, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var req struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
		TenantID *uint   `json:"tenant_id"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email != nil && *req.Email != "" {
		user.Email = *req.Email
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user update failed"})
		}
		user.Password = string(hashed)
	}

	// Role and tenant assignment are admin-only mutations
	if req.Role != nil || req.TenantID != nil {
		if !actor.IsAdmin() {
			prometheus.RecordAccessDenied("users", "update")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
		}
		if req.Role != nil {
			switch *req.Role {
			case model.RoleAdmin, model.RoleTenantAdmin, model.RoleUser:
				user.Role = *req.Role
			default:
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
			}
		}
		if req.TenantID != nil {
			user.TenantID = req.TenantID
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&user); result.Error != nil {
		log.Error("Failed to update user", zap.Uint("id", user.ID), zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"error": "user update failed"})
	}

	log.Info("User updated", zap.Uint("id", user.ID))
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user. Admin only.
func DeleteUser(c echo.Context) error {
	log := logger.FromEcho(c)

	actor := currentActor(c)
	if actor == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if !actor.IsAdmin() {
		prometheus.RecordAccessDenied("users", "delete")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.User{}, id)
	if result.Error != nil {
		log.Error("Failed to delete user", zap.Uint64("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user deletion failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	log.Info("User deleted", zap.Uint64("id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
