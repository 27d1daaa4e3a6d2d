package repository

import (
	"context"

	"streetwalk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StreetFilter narrows public street listings.
type StreetFilter struct {
	Type     string
	Mode     string
	Category string
}

// StreetRepository defines the interface for data access of Street entities
type StreetRepository interface {
	Insert(ctx context.Context, street *model.Street) error
	FindPublished(ctx context.Context, filter StreetFilter, page, limit int) ([]model.Street, int64, error)
	FindPublishedByID(ctx context.Context, id uuid.UUID) (*model.Street, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Street, error)
	FindByOwnerOrAll(ctx context.Context, ownerID uuid.UUID, admin bool, page, limit int) ([]model.Street, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ReplaceVideos(ctx context.Context, streetID uuid.UUID, videos []model.StreetVideo) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	IncrementLike(ctx context.Context, id uuid.UUID, likerKey string) (int64, error)
	DistinctCategories(ctx context.Context, mode string) ([]string, error)
	FindAllUnscoped(ctx context.Context, page, limit int) ([]model.Street, int64, error)
}

type streetRepository struct {
	db *gorm.DB
}

// NewStreetRepository returns a new instance of StreetRepository
func NewStreetRepository(db *gorm.DB) StreetRepository {
	return &streetRepository{db: db}
}

func (r *streetRepository) Insert(ctx context.Context, street *model.Street) error {
	return r.db.WithContext(ctx).Create(street).Error
}

// FindPublished merges the caller filter with the published/non-deleted
// constraint that every public listing shares.
func (r *streetRepository) FindPublished(ctx context.Context, filter StreetFilter, page, limit int) ([]model.Street, int64, error) {
	var streets []model.Street
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Street{}).Where("status = ?", model.StatusPublished)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Mode != "" {
		query = query.Where("mode = ?", filter.Mode)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("created_at DESC").Offset(offset).Limit(limit).Find(&streets).Error; err != nil {
		return nil, 0, err
	}

	return streets, total, nil
}

func (r *streetRepository) FindPublishedByID(ctx context.Context, id uuid.UUID) (*model.Street, error) {
	var street model.Street
	err := r.db.WithContext(ctx).Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&street, "id = ? AND status = ?", id, model.StatusPublished).Error
	if err != nil {
		return nil, err
	}
	return &street, nil
}

func (r *streetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Street, error) {
	var street model.Street
	err := r.db.WithContext(ctx).Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&street, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &street, nil
}

// FindByOwnerOrAll backs the dashboard: admins see every non-deleted street,
// regular users only their own.
func (r *streetRepository) FindByOwnerOrAll(ctx context.Context, ownerID uuid.UUID, admin bool, page, limit int) ([]model.Street, int64, error) {
	var streets []model.Street
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Street{})
	if !admin {
		query = query.Where("owner_id = ?", ownerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("created_at DESC").Offset(offset).Limit(limit).Find(&streets).Error; err != nil {
		return nil, 0, err
	}

	return streets, total, nil
}

func (r *streetRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Street{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *streetRepository) ReplaceVideos(ctx context.Context, streetID uuid.UUID, videos []model.StreetVideo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("street_id = ?", streetID).Delete(&model.StreetVideo{}).Error; err != nil {
			return err
		}
		if len(videos) == 0 {
			return nil
		}
		return tx.Create(&videos).Error
	})
}

func (r *streetRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Street{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementLike bumps the counter at most once per (street, liker) pair. The
// unique index on street_likes is the dedup mechanism; a conflicting insert
// leaves the counter untouched and returns the current count.
func (r *streetRepository) IncrementLike(ctx context.Context, id uuid.UUID, likerKey string) (int64, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var street model.Street
		if err := tx.Select("id").First(&street, "id = ?", id).Error; err != nil {
			return err
		}

		like := model.StreetLike{StreetID: id, LikerKey: likerKey}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already liked from this session
			return nil
		}

		return tx.Model(&model.Street{}).Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("likes + 1")).Error
	})
	if err != nil {
		return 0, err
	}

	var likes int64
	if err := r.db.WithContext(ctx).Model(&model.Street{}).Where("id = ?", id).
		Pluck("likes", &likes).Error; err != nil {
		return 0, err
	}
	return likes, nil
}

// DistinctCategories feeds the UI filter controls for one viewer mode.
func (r *streetRepository) DistinctCategories(ctx context.Context, mode string) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&model.Street{}).
		Where("type = ? AND mode = ? AND status = ? AND category <> ''",
			model.StreetTypeVideo, mode, model.StatusPublished).
		Distinct("category").Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// FindAllUnscoped lists every street including soft-deleted rows, for the
// admin audit view.
func (r *streetRepository) FindAllUnscoped(ctx context.Context, page, limit int) ([]model.Street, int64, error) {
	var streets []model.Street
	var total int64

	query := r.db.WithContext(ctx).Unscoped().Model(&model.Street{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&streets).Error; err != nil {
		return nil, 0, err
	}

	return streets, total, nil
}
