package lead

import (
	"context"

	"github.com/waassist/connector/pkg/entities"
	"github.com/waassist/connector/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreateIfAbsent(ctx context.Context, lead *entities.Lead) (bool, error)
	List(ctx context.Context, orgID uint, page int) ([]entities.Lead, int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

// CreateIfAbsent inserts the lead unless the organization already has one
// with the same phone number. It reports whether a row was written.
func (r *repository) CreateIfAbsent(ctx context.Context, lead *entities.Lead) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "phone_number"}},
			DoNothing: true,
		}).
		Create(lead)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, orgID uint, page int) ([]entities.Lead, int, error) {
	var leads []entities.Lead
	totalPages, err := utils.Pagination(&leads, page, r.db.Order("created_at DESC"), ctx, "organization_id = ?", orgID)
	if err != nil {
		return nil, 0, err
	}
	return leads, totalPages, nil
}
