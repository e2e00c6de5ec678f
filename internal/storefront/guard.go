package storefront

import (
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/models"
)

// Requirement 路由访问要求
type Requirement struct {
	AdminOnly  bool
	SellerOnly bool
}

// Guard 界面层路由守卫，返回需要跳转的路由，空串表示放行
// 仅用于界面体验，权限以服务端校验为准
func (s *Storefront) Guard(path string, req Requirement) string {
	return Guard(s.Session.Get(), path, req)
}

// Guard 根据身份判断路由是否放行
func Guard(identity *models.Identity, path string, req Requirement) string {
	if identity == nil {
		return constants.RouteLogin
	}
	role := models.NormalizeRole(identity.Role)
	if req.AdminOnly && role != constants.RoleAdmin {
		return constants.RouteHome
	}
	if req.SellerOnly && role != constants.RoleSeller {
		return constants.RouteSellerRegister
	}
	if !req.AdminOnly && role == constants.RoleAdmin && path == constants.RouteHome {
		return constants.RouteAdminDashboard
	}
	return ""
}
