package service

import (
	"context"
	"errors"

	"Uni_Community/internal/model"
	"Uni_Community/internal/pkg"
	"Uni_Community/internal/repository/mysql"
	redisrepo "Uni_Community/internal/repository/redis"

	"golang.org/x/crypto/bcrypt"
)

// UserService 身份相关的薄封装：注册/登录/登出。
// 本子系统只消费它产出的 user_id，其余身份能力不在这里展开
type UserService struct {
	repo   *mysql.UserRepository
	tokens *redisrepo.UserTokenRepository
}

func NewUserService(repo *mysql.UserRepository, tokens *redisrepo.UserTokenRepository) *UserService {
	return &UserService{repo: repo, tokens: tokens}
}

func (s *UserService) Register(ctx context.Context, username, password, email string) error {
	if username == "" || password == "" || email == "" {
		return ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.repo.Create(ctx, &model.User{
		Username: username,
		Password: string(hash),
		Email:    email,
	})
}

func (s *UserService) Login(ctx context.Context, username, password string) (*pkg.Pair, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("invalid username or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, errors.New("invalid username or password")
	}

	pair, err := pkg.GeneratePair(user.ID)
	if err != nil {
		return nil, err
	}

	// 单点登录：记录当前有效 token，旧会话自动失效
	if err := s.tokens.AddUserToken(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.tokens.DeleteUserToken(ctx, userID)
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	pair, err := pkg.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}

	claims, err := pkg.ParseAccess(pair.AccessToken)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.AddUserToken(ctx, claims.UserID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}
