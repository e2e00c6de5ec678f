package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/dujiao-next/storefront/internal/cache"
	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AuthService 认证服务（用户、卖家、管理员共用一张用户表）
type AuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		cfg:      cfg,
		userRepo: userRepo,
	}
}

// JWTClaims JWT 声明
type JWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(resolveJWTExpireHours(s.cfg.JWT)) * time.Hour)
	claims := JWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         models.NormalizeRole(user.Role),
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &JWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Register 注册账号，role 仅允许 user / seller
func (s *AuthService) Register(name, email, password, role string) (*models.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	role = models.NormalizeRole(role)
	if role != constants.RoleUser && role != constants.RoleSeller {
		return nil, ErrInvalidRole
	}
	if len([]rune(password)) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	existing, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = resolveNameFromEmail(normalized)
	}
	user := &models.User{
		Email:        normalized,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 按指定角色登录，角色不匹配与密码错误一样视为凭证无效
func (s *AuthService) Login(email, password, role string) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if models.NormalizeRole(user.Role) != models.NormalizeRole(role) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if strings.ToLower(user.Status) != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}

	token, expiresAt, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.TouchLogin(user.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	return user, token, expiresAt, nil
}

// Logout 递增 Token 版本，使该用户已签发的 Token 全部失效
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	if err := s.userRepo.BumpTokenVersion(userID); err != nil {
		return err
	}
	return cache.DelUserAuthState(ctx, userID)
}

// BecomeSeller 买家升级为卖家并签发新 Token，旧 Token 随之失效
// 已是卖家时直接签发新 Token；管理员不允许降级
func (s *AuthService) BecomeSeller(ctx context.Context, userID uint) (*models.User, string, time.Time, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrUserNotFound
	}
	switch models.NormalizeRole(user.Role) {
	case constants.RoleAdmin:
		return nil, "", time.Time{}, ErrInvalidRole
	case constants.RoleUser:
		user.Role = constants.RoleSeller
		user.TokenVersion++
		if err := s.userRepo.Update(user); err != nil {
			return nil, "", time.Time{}, err
		}
		_ = cache.DelUserAuthState(ctx, userID)
	}
	token, expiresAt, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// UpdateProfile 修改昵称、邮箱，password 非空时同时修改密码
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, name, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if strings.TrimSpace(email) != "" {
		normalized, err := normalizeEmail(email)
		if err != nil {
			return nil, err
		}
		if normalized != user.Email {
			existing, err := s.userRepo.GetByEmail(normalized)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != user.ID {
				return nil, ErrEmailExists
			}
			user.Email = normalized
		}
	}
	if name = strings.TrimSpace(name); name != "" {
		user.Name = name
	}
	if password != "" {
		if len([]rune(password)) < minPasswordLength {
			return nil, ErrWeakPassword
		}
		hash, err := s.HashPassword(password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(ctx, cache.BuildUserAuthState(user))
	return user, nil
}

// ResolveAuthState 校验 Token 对应的账号状态（优先读缓存）
func (s *AuthService) ResolveAuthState(ctx context.Context, claims *JWTClaims) (*cache.UserAuthState, error) {
	if claims == nil || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	state, hit, err := cache.GetUserAuthState(ctx, claims.UserID)
	if err != nil || !hit {
		user, err := s.userRepo.GetByID(claims.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		state = cache.BuildUserAuthState(user)
		_ = cache.SetUserAuthState(ctx, state)
	}
	if strings.ToLower(state.Status) != constants.UserStatusActive {
		return nil, ErrUserDisabled
	}
	if state.TokenVersion != claims.TokenVersion {
		return nil, ErrTokenRevoked
	}
	return state, nil
}

// IsAuthError 判断是否为需要重新登录的鉴权错误
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrUserDisabled) ||
		errors.Is(err, ErrUserNotFound)
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

func resolveJWTExpireHours(cfg config.JWTConfig) int {
	if cfg.ExpireHours <= 0 {
		return 24
	}
	return cfg.ExpireHours
}

func resolveNameFromEmail(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) == 2 && strings.TrimSpace(parts[0]) != "" {
		return parts[0]
	}
	return email
}
