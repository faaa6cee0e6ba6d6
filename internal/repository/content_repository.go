package repository

import (
	"context"
	"fmt"
	"question_bank_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ContentChild is the compact node returned by the children lookup.
type ContentChild struct {
	ID   uint   `json:"id"`
	Name string `json:"nome" gorm:"column:nome"`
}

type ContentRepository struct {
	DB    *gorm.DB
	cache jsonCache
	ctx   context.Context
}

func NewContentRepository(db *gorm.DB, rdb *redis.Client) *ContentRepository {
	return &ContentRepository{
		DB:    db,
		cache: jsonCache{rdb: rdb},
		ctx:   context.Background(),
	}
}

func childrenKey(parentID uint) string {
	return fmt.Sprintf("qbank:conteudos:children:%d", parentID)
}

func (r *ContentRepository) FindByID(id uint) (*model.Content, error) {
	var c model.Content
	err := r.DB.First(&c, id).Error
	return &c, err
}

// List filters by type and parent. When a type is given without a parent,
// only root nodes are returned.
func (r *ContentRepository) List(contentType model.ContentType, parentID *uint) ([]model.Content, error) {
	var contents []model.Content
	db := r.DB.Model(&model.Content{})
	if contentType != "" {
		db = db.Where("tipo = ?", contentType)
	}
	if parentID != nil {
		db = db.Where("pai_id = ?", *parentID)
	} else if contentType != "" {
		db = db.Where("pai_id IS NULL")
	}
	err := db.Order("nome ASC, id ASC").Find(&contents).Error
	return contents, err
}

// Children returns the direct children of parentID, cached in Redis when available.
func (r *ContentRepository) Children(parentID uint) ([]ContentChild, error) {
	key := childrenKey(parentID)
	var children []ContentChild
	if r.cache.get(r.ctx, key, &children) {
		return children, nil
	}

	err := r.DB.Model(&model.Content{}).
		Select("id, nome").
		Where("pai_id = ?", parentID).
		Order("nome ASC, id ASC").
		Scan(&children).Error
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []ContentChild{}
	}
	r.cache.set(r.ctx, key, children)
	return children, nil
}

func (r *ContentRepository) Create(c *model.Content) error {
	if err := r.DB.Create(c).Error; err != nil {
		return err
	}
	if c.ParentID != nil {
		r.cache.del(r.ctx, childrenKey(*c.ParentID))
	}
	return nil
}

// DescendantLevels maps each level below areaID to the ids of that area's
// nodes at that level.
func (r *ContentRepository) DescendantLevels(areaID uint) (map[model.ContentType][]uint, error) {
	return descendantLevels(r.DB, areaID)
}

func descendantLevels(db *gorm.DB, areaID uint) (map[model.ContentType][]uint, error) {
	levels := make(map[model.ContentType][]uint, len(model.ContentTypes)-1)
	parents := []uint{areaID}
	for _, t := range model.ContentTypes[1:] {
		var ids []uint
		if len(parents) > 0 {
			err := db.Model(&model.Content{}).
				Where("tipo = ? AND pai_id IN ?", t, parents).
				Pluck("id", &ids).Error
			if err != nil {
				return nil, err
			}
		}
		levels[t] = ids
		parents = ids
	}
	return levels, nil
}
