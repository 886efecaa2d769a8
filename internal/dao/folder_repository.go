package dao

import (
	"context"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/model"

	"gorm.io/gorm"
)

type folderRepository struct {
	*Dao
}

func NewFolderRepository(d *Dao) domain.FolderRepository {
	return &folderRepository{Dao: d}
}

func (r *folderRepository) toDomain(m *model.Folder) *domain.Folder {
	return &domain.Folder{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *folderRepository) GetByID(ctx context.Context, id int64) (*domain.Folder, error) {
	var m model.Folder
	if err := r.conn(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *folderRepository) List(ctx context.Context) ([]*domain.Folder, error) {
	var ms []*model.Folder
	if err := r.conn(ctx).Order("name ASC, id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	res := make([]*domain.Folder, 0, len(ms))
	for _, m := range ms {
		res = append(res, r.toDomain(m))
	}
	return res, nil
}

func (r *folderRepository) Create(ctx context.Context, folder *domain.Folder) (*domain.Folder, error) {
	m := &model.Folder{Name: folder.Name, Description: folder.Description}
	if err := r.conn(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

func (r *folderRepository) Update(ctx context.Context, folder *domain.Folder) (*domain.Folder, error) {
	res := r.conn(ctx).Model(&model.Folder{}).Where("id = ?", folder.ID).Updates(map[string]interface{}{
		"name":        folder.Name,
		"description": folder.Description,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, folder.ID)
}

func (r *folderRepository) Delete(ctx context.Context, id int64) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		// 解除笔记与该文件夹的关联
		if err := tx.Model(&model.Note{}).Where("folder_id = ?", id).Update("folder_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Folder{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
