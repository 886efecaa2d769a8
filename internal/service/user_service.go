package service

import (
	"context"
	"errors"
	"strings"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/dto"
	"github.com/haierkeys/fast-note-service/pkg/app"
	"github.com/haierkeys/fast-note-service/pkg/code"
	"github.com/haierkeys/fast-note-service/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 定义用户业务服务接口
type UserService interface {
	// Signup 用户注册，返回令牌与用户信息
	Signup(ctx context.Context, params *dto.UserSignupRequest) (*dto.AuthDTO, error)

	// Login 用户登录
	Login(ctx context.Context, params *dto.UserLoginRequest) (*dto.AuthDTO, error)

	// Profile 获取用户信息（不含密码）
	Profile(ctx context.Context, uid int64) (*dto.UserDTO, error)

	// Verify is the auth gate lookup: a missing user is ErrorInvalidUserAuthToken.
	Verify(ctx context.Context, uid int64) (*domain.User, error)
}

type userService struct {
	userRepo     domain.UserRepository
	tokenManager app.TokenManager
	logger       *zap.Logger
	config       *ServiceConfig
}

func NewUserService(userRepo domain.UserRepository, tokenManager app.TokenManager, logger *zap.Logger, config *ServiceConfig) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{
		userRepo:     userRepo,
		tokenManager: tokenManager,
		logger:       logger,
		config:       config,
	}
}

func (s *userService) domainToDTO(user *domain.User) *dto.UserDTO {
	if user == nil {
		return nil
	}
	return &dto.UserDTO{
		UID:       user.UID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) issue(user *domain.User) (*dto.AuthDTO, error) {
	token, err := s.tokenManager.Generate(user.UID)
	if err != nil {
		return nil, code.ErrorTokenGenerate.WithDetails(err.Error())
	}
	return &dto.AuthDTO{Token: token, User: s.domainToDTO(user)}, nil
}

func (s *userService) Signup(ctx context.Context, params *dto.UserSignupRequest) (*dto.AuthDTO, error) {
	if s.config != nil && !s.config.User.RegisterIsEnable {
		return nil, code.ErrorUserRegisterIsDisable
	}

	email := normalizeEmail(params.Email)

	// 检查邮箱是否已存在
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if existing != nil {
		return nil, code.ErrorUserAlreadyExists
	}

	password, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return nil, code.ErrorPasswordNotValid
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Username: strings.TrimSpace(params.Username),
		Email:    email,
		Password: password,
	})
	if err != nil {
		// 并发注册同一邮箱时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, code.ErrorUserAlreadyExists
		}
		return nil, code.ErrorUserRegister.WithDetails(err.Error())
	}

	return s.issue(user)
}

func (s *userService) Login(ctx context.Context, params *dto.UserLoginRequest) (*dto.AuthDTO, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorUserNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	if !util.CheckPasswordHash(user.Password, params.Password) {
		return nil, code.ErrorUserInvalidCredentials
	}
	user.Password = ""

	return s.issue(user)
}

func (s *userService) Profile(ctx context.Context, uid int64) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorUserNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return s.domainToDTO(user), nil
}

func (s *userService) Verify(ctx context.Context, uid int64) (*domain.User, error) {
	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorInvalidUserAuthToken
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	user.Password = ""
	return user, nil
}
