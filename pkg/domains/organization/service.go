package organization

import (
	"context"
	"errors"
	"fmt"

	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/entities"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Invalidator drops cached gateway clients built from old credentials.
type Invalidator interface {
	Invalidate(orgID uint)
}

type Service interface {
	Get(ctx context.Context, orgID uint) (entities.Organization, error)
	UpdateGateway(ctx context.Context, orgID uint, req dtos.UpdateGatewayDTO) (entities.Organization, error)
}

type service struct {
	repository Repository
	gateways   Invalidator
}

func NewService(r Repository, g Invalidator) Service {
	return &service{
		repository: r,
		gateways:   g,
	}
}

func (s *service) Get(ctx context.Context, orgID uint) (entities.Organization, error) {
	org, err := s.repository.FindOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Organization{}, fmt.Errorf(constant.CANT_FIND, "Organization")
		}
		return entities.Organization{}, errors.New(constant.SOMETHING_WENT_WRONG)
	}
	return org, nil
}

// UpdateGateway stores new gateway credentials and evicts the cached client
// so the next call uses them.
func (s *service) UpdateGateway(ctx context.Context, orgID uint, req dtos.UpdateGatewayDTO) (entities.Organization, error) {
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return entities.Organization{}, err
	}

	org.GatewayBaseURL = req.BaseURL
	org.GatewayInstanceID = req.InstanceID
	org.GatewayToken = req.Token
	org.GatewayClientToken = req.ClientToken

	if err := s.repository.UpdateOrganization(ctx, org); err != nil {
		zap.L().Error("updating gateway credentials failed", zap.Uint("organization_id", orgID), zap.Error(err))
		return entities.Organization{}, errors.New(constant.SOMETHING_WENT_WRONG)
	}
	s.gateways.Invalidate(orgID)
	return org, nil
}
