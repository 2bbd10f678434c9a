package connection

import (
	"context"

	"github.com/waassist/connector/pkg/entities"
	"gorm.io/gorm"
)

// Owner identifies the profile and organization a connection belongs to.
type Owner struct {
	ProfileID      uint `json:"profile_id"`
	OrganizationID uint `json:"organization_id"`
}

type Repository interface {
	Latest(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error)
	Save(ctx context.Context, record *entities.ConnectionRecord) error
	FindByPhone(ctx context.Context, phone string) (entities.ConnectionRecord, error)
	Owners(ctx context.Context) ([]Owner, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

// Latest returns the most recently created record of the owner. Older
// duplicates are ignored.
func (r *repository) Latest(ctx context.Context, profileID, orgID uint) (entities.ConnectionRecord, error) {
	var record entities.ConnectionRecord
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND organization_id = ?", profileID, orgID).
		Order("created_at DESC").
		Order("id DESC").
		First(&record).Error
	return record, err
}

func (r *repository) Save(ctx context.Context, record *entities.ConnectionRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *repository) FindByPhone(ctx context.Context, phone string) (entities.ConnectionRecord, error) {
	var record entities.ConnectionRecord
	err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&record).Error
	return record, err
}

func (r *repository) Owners(ctx context.Context) ([]Owner, error) {
	var owners []Owner
	err := r.db.WithContext(ctx).
		Model(&entities.ConnectionRecord{}).
		Distinct("profile_id", "organization_id").
		Find(&owners).Error
	return owners, err
}
