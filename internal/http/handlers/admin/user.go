package admin

import (
	"errors"
	"strconv"

	handlershared "github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/repository"
	"github.com/dujiao-next/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRoleRequest 修改角色请求
type UserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UserBlockRequest 封禁请求，未传 blocked 时视为封禁
type UserBlockRequest struct {
	Blocked *bool `json:"blocked"`
}

// GetUsers 用户列表
func (h *Handler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	users, total, err := h.UserService.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
		Role:     c.Query("role"),
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "Failed to load users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}

// UpdateUserRole 修改用户角色
func (h *Handler) UpdateUserRole(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	var req UserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Role is required", nil)
		return
	}
	user, err := h.UserService.SetRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		respondUserError(c, err)
		return
	}
	requestLog(c).Infow("admin_user_role_updated", "target_user_id", userID, "role", user.Role)
	response.Success(c, user)
}

// BlockUser 封禁/解封用户
func (h *Handler) BlockUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	var req UserBlockRequest
	_ = c.ShouldBindJSON(&req)
	blocked := true
	if req.Blocked != nil {
		blocked = *req.Blocked
	}
	user, err := h.UserService.SetBlocked(c.Request.Context(), userID, blocked)
	if err != nil {
		respondUserError(c, err)
		return
	}
	requestLog(c).Infow("admin_user_block_updated", "target_user_id", userID, "blocked", blocked)
	response.Success(c, user)
}

func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "Invalid user id", nil)
		return 0, false
	}
	return uint(id), true
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, response.CodeNotFound, "User not found", nil)
	case errors.Is(err, service.ErrInvalidRole):
		respondError(c, response.CodeBadRequest, "Invalid role", nil)
	default:
		respondError(c, response.CodeInternal, "User update failed", err)
	}
}
