package service

import (
	"context"
	"strings"

	"github.com/dujiao-next/storefront/internal/cache"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/repository"
)

// UserService 后台用户管理服务
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建用户管理服务
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List 用户列表
func (s *UserService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// SetRole 修改用户角色，旧 Token 随之失效
func (s *UserService) SetRole(ctx context.Context, userID uint, role string) (*models.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(role))
	switch normalized {
	case constants.RoleUser, constants.RoleSeller, constants.RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}
	user, err := s.mustGet(userID)
	if err != nil {
		return nil, err
	}
	user.Role = normalized
	user.TokenVersion++
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.DelUserAuthState(ctx, userID)
	return user, nil
}

// SetBlocked 封禁或解封用户
func (s *UserService) SetBlocked(ctx context.Context, userID uint, blocked bool) (*models.User, error) {
	user, err := s.mustGet(userID)
	if err != nil {
		return nil, err
	}
	user.Status = constants.UserStatusActive
	if blocked {
		user.Status = constants.UserStatusBlocked
		user.TokenVersion++
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.DelUserAuthState(ctx, userID)
	return user, nil
}

func (s *UserService) mustGet(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
