package storefront

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/gateway"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/orders"
)

var (
	// ErrLoginRequired 需要登录后才能操作
	ErrLoginRequired = errors.New("please log in to continue")
	// ErrProfileUnchanged 没有需要修改的资料
	ErrProfileUnchanged = errors.New("nothing to update")
)

// CheckoutInput 结算参数
type CheckoutInput struct {
	Address       string
	City          string
	Zip           string
	PaymentMethod string
}

// ProfileUpdate 资料修改，空字段保持不变
type ProfileUpdate struct {
	Name     string
	Email    string
	Password string
}

type profileRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

type profileResponse struct {
	User *models.Identity `json:"user"`
}

type becomeSellerResponse struct {
	Token  string           `json:"token"`
	Seller *models.Identity `json:"seller"`
}

// Checkout 用服务端购物车下单，成功后购物车清空并跳转到订单页
func (s *Storefront) Checkout(ctx context.Context, input CheckoutInput) (models.OrderView, string, error) {
	if s.Session.Get() == nil {
		return models.OrderView{}, constants.RouteLogin, ErrLoginRequired
	}
	var placed models.OrderView
	err := s.Cart.Checkout(ctx, func(ctx context.Context) error {
		order, err := s.Orders.Place(ctx, orders.PlaceInput{
			Shipping: models.ShippingAddress{
				Address: input.Address,
				City:    input.City,
				Zip:     input.Zip,
			},
			PaymentMethod: input.PaymentMethod,
		})
		if err != nil {
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		return models.OrderView{}, "", err
	}
	s.log.Infow("storefront_checkout_success", "order_id", placed.ID, "items", placed.Quantity())
	return placed, constants.RouteOrders, nil
}

// UpdateProfile 修改资料；成功后以服务端返回的资料刷新会话，令牌不变
func (s *Storefront) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.Identity, error) {
	current := s.Session.Get()
	if current == nil {
		return nil, ErrLoginRequired
	}
	req := profileRequest{
		Name:     strings.TrimSpace(update.Name),
		Email:    strings.TrimSpace(update.Email),
		Password: update.Password,
	}
	if req.Name == "" && req.Email == "" && req.Password == "" {
		return nil, ErrProfileUnchanged
	}
	var resp profileResponse
	err := s.Gateway.Do(ctx, gateway.Call{
		Method: http.MethodPut,
		Path:   constants.APIPathUserProfile,
		Body:   req,
		Auth:   true,
	}, &resp)
	if err != nil {
		s.log.Warnw("storefront_profile_update_failed", "user_id", current.ID, "kind", gateway.KindOf(err), "error", err)
		return nil, err
	}
	next := current.Clone()
	if resp.User != nil {
		next.DisplayName = resp.User.DisplayName
		next.Email = resp.User.Email
		next.Role = models.NormalizeRole(resp.User.Role)
	}
	if err := s.Session.Set(ctx, next); err != nil {
		return nil, err
	}
	s.log.Infow("storefront_profile_updated", "user_id", next.ID)
	return next, nil
}

// BecomeSeller 升级为卖家；服务端签发的新令牌替换当前会话，返回卖家后台路由
func (s *Storefront) BecomeSeller(ctx context.Context) (string, error) {
	current := s.Session.Get()
	if current == nil {
		return constants.RouteLogin, ErrLoginRequired
	}
	var resp becomeSellerResponse
	err := s.Gateway.Do(ctx, gateway.Call{
		Method: http.MethodPost,
		Path:   constants.APIPathBecomeSeller,
		Auth:   true,
	}, &resp)
	if err != nil {
		s.log.Warnw("storefront_become_seller_failed", "user_id", current.ID, "kind", gateway.KindOf(err), "error", err)
		return "", err
	}
	next := current.Clone()
	if resp.Seller != nil {
		next.DisplayName = resp.Seller.DisplayName
		next.Email = resp.Seller.Email
	}
	next.Role = constants.RoleSeller
	next.Token = resp.Token
	if !next.Valid() {
		return "", &gateway.Error{Kind: gateway.KindServerError, Message: "malformed response body"}
	}
	if err := s.Session.Set(ctx, next); err != nil {
		return "", err
	}
	s.log.Infow("storefront_became_seller", "user_id", next.ID)
	return constants.RouteSellerDashboard, nil
}
