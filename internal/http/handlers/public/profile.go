package public

import (
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UpdateProfileRequest 修改资料请求，字段为空表示不修改
type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfile 修改当前账号资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Invalid profile request", nil)
		return
	}
	user, err := h.AuthService.UpdateProfile(c.Request.Context(), uid, req.Name, req.Email, req.Password)
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, "Profile update failed")
		return
	}
	response.Success(c, gin.H{"user": toAccountResponse(user)})
}

// BecomeSeller 买家升级为卖家，返回新 Token
func (h *Handler) BecomeSeller(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, token, expiresAt, err := h.AuthService.BecomeSeller(c.Request.Context(), uid)
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, "Upgrade failed")
		return
	}
	handlerLog(c).Infow("user_became_seller", "user_id", uid)
	response.Success(c, gin.H{
		"token":              token,
		"expires_at":         expiresAt,
		constants.RoleSeller: toAccountResponse(user),
	})
}
