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

// FolderService 文件夹业务服务接口，文件夹在所有用户间共享
type FolderService interface {
	List(ctx context.Context) ([]*dto.FolderDTO, error)
	Get(ctx context.Context, id int64) (*dto.FolderDTO, error)
	Create(ctx context.Context, params *dto.FolderCreateRequest) (*dto.FolderDTO, error)
	Update(ctx context.Context, id int64, params *dto.FolderUpdateRequest) (*dto.FolderDTO, error)
	Delete(ctx context.Context, id int64) error
}

type folderService struct {
	folderRepo domain.FolderRepository
	logger     *zap.Logger
}

func NewFolderService(folderRepo domain.FolderRepository, logger *zap.Logger) FolderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &folderService{folderRepo: folderRepo, logger: logger}
}

func folderToDTO(f *domain.Folder) (*dto.FolderDTO, error) {
	out := &dto.FolderDTO{}
	if err := convert.StructAssign(f, out); err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}
	return out, nil
}

func folderError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return code.ErrorFolderNotFound
	}
	return code.ErrorDBQuery.WithDetails(err.Error())
}

func (s *folderService) List(ctx context.Context) ([]*dto.FolderDTO, error) {
	folders, err := s.folderRepo.List(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	out := make([]*dto.FolderDTO, 0, len(folders))
	for _, f := range folders {
		d, err := folderToDTO(f)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *folderService) Get(ctx context.Context, id int64) (*dto.FolderDTO, error) {
	f, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, folderError(err)
	}
	return folderToDTO(f)
}

func (s *folderService) Create(ctx context.Context, params *dto.FolderCreateRequest) (*dto.FolderDTO, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, code.ErrorInvalidParams.WithDetails("name cannot be empty")
	}
	f, err := s.folderRepo.Create(ctx, &domain.Folder{Name: name, Description: params.Description})
	if err != nil {
		return nil, code.ErrorDBWrite.WithDetails(err.Error())
	}
	return folderToDTO(f)
}

func (s *folderService) Update(ctx context.Context, id int64, params *dto.FolderUpdateRequest) (*dto.FolderDTO, error) {
	f, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, folderError(err)
	}
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return nil, code.ErrorInvalidParams.WithDetails("name cannot be empty")
		}
		f.Name = name
	}
	if params.Description != nil {
		f.Description = *params.Description
	}
	f, err = s.folderRepo.Update(ctx, f)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorFolderNotFound
		}
		return nil, code.ErrorDBWrite.WithDetails(err.Error())
	}
	return folderToDTO(f)
}

// Delete 删除文件夹，引用它的笔记不会被删除
func (s *folderService) Delete(ctx context.Context, id int64) error {
	if _, err := s.folderRepo.GetByID(ctx, id); err != nil {
		return folderError(err)
	}
	if err := s.folderRepo.Delete(ctx, id); err != nil {
		return code.ErrorDBWrite.WithDetails(err.Error())
	}
	s.logger.Info("folder deleted", zap.Int64(logger.FieldFolderID, id))
	return nil
}
