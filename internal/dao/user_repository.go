package dao

import (
	"context"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/model"
)

type userRepository struct {
	*Dao
}

func NewUserRepository(d *Dao) domain.UserRepository {
	return &userRepository{Dao: d}
}

// 不含密码的列
var userPublicColumns = []string{"uid", "email", "username", "created_at", "updated_at"}

func (r *userRepository) toDomain(m *model.User) *domain.User {
	return &domain.User{
		UID:       m.UID,
		Email:     m.Email,
		Username:  m.Username,
		Password:  m.Password,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r *userRepository) GetByUID(ctx context.Context, uid int64) (*domain.User, error) {
	var m model.User
	if err := r.conn(ctx).Select(userPublicColumns).Where("uid = ?", uid).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m model.User
	if err := r.conn(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m := &model.User{
		Email:    user.Email,
		Username: user.Username,
		Password: user.Password,
	}
	if err := r.conn(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	out := r.toDomain(m)
	out.Password = ""
	return out, nil
}
