package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/middleware"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
	"github.com/gin-gonic/gin"
)

const maxUserPage = 1_000_000

type UserController struct {
	users repository.UserRepository
}

func NewUserController(users repository.UserRepository) *UserController {
	return &UserController{users: users}
}

type UpdateUserRequest struct {
	FullName  *string `json:"fullName"`
	AvatarURL *string `json:"avatarUrl"`
}

type UpdateUserRoleRequest struct {
	Role       string  `json:"role" binding:"required"`
	Department *string `json:"department"`
}

func (uc *UserController) GetCurrentUser(c *gin.Context) {
	user, err := uc.users.GetByID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uc *UserController) UpdateCurrentUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := uc.users.GetByID(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Update fields if provided
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.AvatarURL != nil {
		if avatar := strings.TrimSpace(*req.AvatarURL); avatar != "" {
			user.AvatarURL = &avatar
		} else {
			user.AvatarURL = nil
		}
	}

	if err := uc.users.Update(c.Request.Context(), user); err != nil {
		logger.WithError(err, "user_controller").Error("Failed to update user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Admin: list users with paging and search over email and name.
func (uc *UserController) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if page > maxUserPage {
		page = maxUserPage
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	users, total, err := uc.users.List(c.Request.Context(), c.Query("search"), offset, limit)
	if err != nil {
		logger.WithError(err, "user_controller").Error("Failed to fetch users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// Admin: change a user's role. Department users must name their department.
func (uc *UserController) UpdateUserRole(c *gin.Context) {
	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.UserRole(strings.ToUpper(req.Role))
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var dept *string
	if role == models.RoleDepartment {
		if req.Department == nil || !models.IsDepartment(*req.Department) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A valid department is required for department users"})
			return
		}
		d := *req.Department
		dept = &d
	}

	userID := c.Param("id")
	if userID == c.GetString(middleware.ContextUserID) && role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Admins cannot remove their own admin role"})
		return
	}

	user, err := uc.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.WithError(err, "user_controller").Error("Failed to load user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	user.Role = role
	user.Department = dept
	if err := uc.users.Update(c.Request.Context(), user); err != nil {
		logger.WithError(err, "user_controller").Error("Failed to update user role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user role"})
		return
	}

	logger.WithUser(c.GetString(middleware.ContextUserID)).WithFields(map[string]interface{}{
		"target_user": user.ID,
		"role":        user.Role,
	}).Info("User role updated")
	c.JSON(http.StatusOK, user)
}
