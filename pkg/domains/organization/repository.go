package organization

import (
	"context"

	"github.com/waassist/connector/pkg/entities"
	"gorm.io/gorm"
)

type Repository interface {
	FindOrganization(ctx context.Context, id uint) (entities.Organization, error)
	UpdateOrganization(ctx context.Context, org entities.Organization) error
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) FindOrganization(ctx context.Context, id uint) (entities.Organization, error) {
	var org entities.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	return org, err
}

func (r *repository) UpdateOrganization(ctx context.Context, org entities.Organization) error {
	return r.db.WithContext(ctx).Save(&org).Error
}
