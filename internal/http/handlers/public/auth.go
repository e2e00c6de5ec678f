package public

import (
	"strconv"
	"strings"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignupRequest 注册请求
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AccountResponse 登录账号信息
type AccountResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toAccountResponse(user *models.User) AccountResponse {
	return AccountResponse{
		ID:    strconv.FormatUint(uint64(user.ID), 10),
		Name:  user.Name,
		Email: user.Email,
		Role:  models.NormalizeRole(user.Role),
	}
}

// UserLogin 买家登录
func (h *Handler) UserLogin(c *gin.Context) {
	h.login(c, constants.RoleUser)
}

// SellerLogin 卖家登录
func (h *Handler) SellerLogin(c *gin.Context) {
	h.login(c, constants.RoleSeller)
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	h.login(c, constants.RoleAdmin)
}

// login 响应体中账号字段名与角色一致：{token, user|seller|admin}
func (h *Handler) login(c *gin.Context, role string) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Email and password are required", nil)
		return
	}

	user, token, expiresAt, err := h.AuthService.Login(req.Email, req.Password, role)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, "Login failed")
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		role:         toAccountResponse(user),
	})
}

// UserSignup 买家注册
func (h *Handler) UserSignup(c *gin.Context) {
	h.signup(c, constants.RoleUser)
}

// SellerSignup 卖家注册
func (h *Handler) SellerSignup(c *gin.Context) {
	h.signup(c, constants.RoleSeller)
}

func (h *Handler) signup(c *gin.Context, role string) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Email and password are required", nil)
		return
	}
	user, err := h.AuthService.Register(req.Name, req.Email, req.Password, role)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, "Signup failed")
		return
	}
	response.Success(c, gin.H{role: toAccountResponse(user)})
}

// Logout 退出登录，携带有效 Token 时使其失效；总是返回成功
func (h *Handler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if claims, err := h.AuthService.ParseJWT(strings.TrimSpace(parts[1])); err == nil {
			if err := h.AuthService.Logout(c.Request.Context(), claims.UserID); err != nil {
				handlerLog(c).Warnw("logout_revoke_failed", "user_id", claims.UserID, "error", err)
			}
		}
	}
	response.Success(c, gin.H{"message": "Logged out"})
}
