package models

import (
	"strings"

	"github.com/dujiao-next/storefront/internal/constants"
)

// Identity 当前登录身份（客户端会话快照）
// Role 仅用于界面门控，真正的权限校验由服务端完成
type Identity struct {
	ID          string `json:"_id"`
	DisplayName string `json:"name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	Token       string `json:"token"`
}

// Valid 判断身份快照是否可用
func (i *Identity) Valid() bool {
	if i == nil {
		return false
	}
	return strings.TrimSpace(i.ID) != "" && strings.TrimSpace(i.Token) != ""
}

// HasRole 判断角色
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	return NormalizeRole(i.Role) == NormalizeRole(role)
}

// Clone 复制身份
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Equal 比较两个身份是否一致（nil 表示游客）
func (i *Identity) Equal(other *Identity) bool {
	if i == nil || other == nil {
		return i == nil && other == nil
	}
	return *i == *other
}

// NormalizeRole 归一化角色，空值视为普通用户
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case constants.RoleAdmin:
		return constants.RoleAdmin
	case constants.RoleSeller:
		return constants.RoleSeller
	case constants.RoleGuest:
		return constants.RoleGuest
	default:
		return constants.RoleUser
	}
}
