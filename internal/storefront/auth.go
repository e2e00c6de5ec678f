package storefront

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/gateway"
	"github.com/dujiao-next/storefront/internal/models"
)

var (
	// ErrInvalidCredentials 所有登录入口均拒绝
	ErrInvalidCredentials = errors.New("login failed: invalid credentials or role")
	// ErrCredentialsRequired 邮箱或密码为空
	ErrCredentialsRequired = errors.New("email and password are required")
)

// loginEndpoints 按顺序尝试，第一个成功的入口决定身份
var loginEndpoints = []string{
	constants.APIPathAdminLogin,
	constants.APIPathSellerLogin,
	constants.APIPathUserLogin,
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string           `json:"token"`
	User   *models.Identity `json:"user"`
	Seller *models.Identity `json:"seller"`
	Admin  *models.Identity `json:"admin"`
}

func (r loginResponse) identity() *models.Identity {
	var picked *models.Identity
	for _, candidate := range []*models.Identity{r.User, r.Seller, r.Admin} {
		if candidate != nil {
			picked = candidate.Clone()
			break
		}
	}
	if picked == nil {
		return nil
	}
	picked.Token = r.Token
	picked.Role = models.NormalizeRole(picked.Role)
	return picked
}

// Login 依次尝试管理员、卖家、用户登录入口，返回登录后的落地路由
func (s *Storefront) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrCredentialsRequired
	}

	var transportErr error
	for _, endpoint := range loginEndpoints {
		var resp loginResponse
		err := s.Gateway.Do(ctx, gateway.Call{
			Method: http.MethodPost,
			Path:   endpoint,
			Body:   loginRequest{Email: email, Password: password},
		}, &resp)
		if err != nil {
			if kind := gateway.KindOf(err); kind == gateway.KindNetworkFailure || kind == gateway.KindServerError {
				transportErr = err
			}
			s.log.Debugw("storefront_login_attempt_failed", "endpoint", endpoint, "error", err)
			continue
		}
		identity := resp.identity()
		if !identity.Valid() {
			s.log.Warnw("storefront_login_response_invalid", "endpoint", endpoint)
			continue
		}
		if identity.Role == constants.RoleAdmin {
			if err := s.Session.SetElevated(ctx, identity); err != nil {
				return "", err
			}
		}
		if err := s.Session.Set(ctx, identity); err != nil {
			return "", err
		}
		s.log.Infow("storefront_login_success", "user_id", identity.ID, "role", identity.Role, "endpoint", endpoint)
		// 加载失败不影响登录结果，购物车保持空并在下次加载时恢复
		if err := s.Start(ctx); err != nil {
			s.log.Warnw("storefront_login_initial_load_failed", "user_id", identity.ID, "error", err)
		}
		return LandingRoute(identity.Role), nil
	}
	if transportErr != nil {
		return "", transportErr
	}
	return "", ErrInvalidCredentials
}

// Logout 通知服务端退出（失败忽略），随后总是清理本地会话
// 购物车与心愿单经会话订阅随之清空
func (s *Storefront) Logout(ctx context.Context) string {
	if s.Session.Get() != nil {
		if err := s.Gateway.Do(ctx, gateway.Call{Method: http.MethodPost, Path: constants.APIPathLogout, Auth: true}, nil); err != nil {
			s.log.Warnw("storefront_logout_request_failed", "error", err)
		}
	}
	s.Session.Clear(ctx)
	return constants.RouteLogin
}

// LandingRoute 登录后按角色跳转的路由
func LandingRoute(role string) string {
	switch models.NormalizeRole(role) {
	case constants.RoleAdmin:
		return constants.RouteAdminDashboard
	case constants.RoleSeller:
		return constants.RouteSellerDashboard
	default:
		return constants.RouteHome
	}
}
