package dao

import (
	"context"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/model"

	"gorm.io/gorm"
)

type tagRepository struct {
	*Dao
}

func NewTagRepository(d *Dao) domain.TagRepository {
	return &tagRepository{Dao: d}
}

func (r *tagRepository) toDomain(m *model.Tag) *domain.Tag {
	return &domain.Tag{
		ID:        m.ID,
		Name:      m.Name,
		Color:     m.Color,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r *tagRepository) GetByID(ctx context.Context, id int64) (*domain.Tag, error) {
	var m model.Tag
	if err := r.conn(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *tagRepository) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	var m model.Tag
	if err := r.conn(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *tagRepository) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := r.conn(ctx).Model(&model.Tag{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

func (r *tagRepository) List(ctx context.Context) ([]*domain.Tag, error) {
	var ms []*model.Tag
	if err := r.conn(ctx).Order("name ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	res := make([]*domain.Tag, 0, len(ms))
	for _, m := range ms {
		res = append(res, r.toDomain(m))
	}
	return res, nil
}

func (r *tagRepository) Create(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	m := &model.Tag{Name: tag.Name, Color: tag.Color}
	if err := r.conn(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

func (r *tagRepository) Update(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	res := r.conn(ctx).Model(&model.Tag{}).Where("id = ?", tag.ID).Updates(map[string]interface{}{
		"name":  tag.Name,
		"color": tag.Color,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, tag.ID)
}

func (r *tagRepository) Delete(ctx context.Context, id int64) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&model.NoteTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Tag{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
