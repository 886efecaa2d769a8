package service

import (
	"context"
	"errors"
	"strings"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/dto"
	"github.com/haierkeys/fast-note-service/pkg/code"
	"github.com/haierkeys/fast-note-service/pkg/convert"
	"github.com/haierkeys/fast-note-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TagService 标签业务服务接口，标签名称全局唯一
type TagService interface {
	List(ctx context.Context) ([]*dto.TagDTO, error)
	Get(ctx context.Context, id int64) (*dto.TagDTO, error)
	Create(ctx context.Context, params *dto.TagCreateRequest) (*dto.TagDTO, error)
	Update(ctx context.Context, id int64, params *dto.TagUpdateRequest) (*dto.TagDTO, error)
	Delete(ctx context.Context, id int64) error
}

type tagService struct {
	tagRepo domain.TagRepository
	logger  *zap.Logger
}

func NewTagService(tagRepo domain.TagRepository, lg *zap.Logger) TagService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &tagService{tagRepo: tagRepo, logger: lg}
}

func tagToDTO(t *domain.Tag) (*dto.TagDTO, error) {
	out := &dto.TagDTO{}
	if err := convert.StructAssign(t, out); err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}
	return out, nil
}

// checkNameFree 名称已被其他标签占用时返回 409
func (s *tagService) checkNameFree(ctx context.Context, name string, self int64) error {
	existing, err := s.tagRepo.GetByName(ctx, name)
	switch {
	case err == nil && existing.ID != self:
		return code.ErrorTagAlreadyExists
	case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
}

func (s *tagService) List(ctx context.Context) ([]*dto.TagDTO, error) {
	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	out := make([]*dto.TagDTO, 0, len(tags))
	for _, t := range tags {
		d, err := tagToDTO(t)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *tagService) Get(ctx context.Context, id int64) (*dto.TagDTO, error) {
	t, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorTagNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return tagToDTO(t)
}

func (s *tagService) Create(ctx context.Context, params *dto.TagCreateRequest) (*dto.TagDTO, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, code.ErrorInvalidParams.WithDetails("name cannot be empty")
	}
	if err := s.checkNameFree(ctx, name, 0); err != nil {
		return nil, err
	}
	t, err := s.tagRepo.Create(ctx, &domain.Tag{Name: name, Color: params.Color})
	if err != nil {
		// 并发创建时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, code.ErrorTagAlreadyExists
		}
		return nil, code.ErrorDBWrite.WithDetails(err.Error())
	}
	return tagToDTO(t)
}

func (s *tagService) Update(ctx context.Context, id int64, params *dto.TagUpdateRequest) (*dto.TagDTO, error) {
	t, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorTagNotFound
		}
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, code.ErrorInvalidParams.WithDetails("name cannot be empty")
		}
		if name != t.Name {
			if err := s.checkNameFree(ctx, name, id); err != nil {
				return nil, err
			}
		}
		t.Name = name
	}
	if params.Color != nil {
		t.Color = *params.Color
	}
	t, err = s.tagRepo.Update(ctx, t)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, code.ErrorTagAlreadyExists
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, code.ErrorTagNotFound
		}
		return nil, code.ErrorDBWrite.WithDetails(err.Error())
	}
	return tagToDTO(t)
}

func (s *tagService) Delete(ctx context.Context, id int64) error {
	if _, err := s.tagRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code.ErrorTagNotFound
		}
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	if err := s.tagRepo.Delete(ctx, id); err != nil {
		return code.ErrorDBWrite.WithDetails(err.Error())
	}
	s.logger.Info("tag deleted", zap.Int64(logger.FieldTagID, id))
	return nil
}
