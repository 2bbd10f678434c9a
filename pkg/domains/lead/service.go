package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/entities"
	"github.com/waassist/connector/pkg/gateway"
	"github.com/waassist/connector/pkg/notify"
	"go.uber.org/zap"
)

const defaultGenerateLimit = 20

// ErrWebhookMissing is returned by Generate when no lead workflow is configured.
var ErrWebhookMissing = errors.New(constant.LEAD_WEBHOOK_MISSING)

type Service interface {
	CreateIfAbsent(ctx context.Context, lead entities.Lead) (bool, error)
	List(ctx context.Context, orgID uint, page int) ([]entities.Lead, int, error)
	Generate(ctx context.Context, profileID, orgID uint, req dtos.GenerateLeadsDTO) (dtos.GenerateLeadsResultDTO, error)
}

type service struct {
	repository Repository
	webhookURL string
	http       *http.Client
}

func NewService(r Repository, webhookURL string, timeout time.Duration) Service {
	return &service{
		repository: r,
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: timeout},
	}
}

// CreateIfAbsent stores a lead keyed by its digits-only phone number.
// Existing leads are never updated.
func (s *service) CreateIfAbsent(ctx context.Context, lead entities.Lead) (bool, error) {
	lead.PhoneNumber = gateway.NormalizePhone(lead.PhoneNumber)
	if lead.PhoneNumber == "" {
		return false, errors.New(constant.INVALID_PHONE_NUMBER)
	}
	lead.ID = 0
	return s.repository.CreateIfAbsent(ctx, &lead)
}

func (s *service) List(ctx context.Context, orgID uint, page int) ([]entities.Lead, int, error) {
	if page <= 0 {
		return nil, 0, errors.New(constant.INVALID_PAGE_NUMBER)
	}
	return s.repository.List(ctx, orgID, page)
}

type generateRequest struct {
	OrganizationID uint   `json:"organization_id"`
	ProfileID      uint   `json:"profile_id"`
	Segment        string `json:"segment"`
	City           string `json:"city"`
	Limit          int    `json:"limit"`
}

// Generate asks the lead-generation workflow for businesses matching segment
// and city, then stores the ones the organization does not know yet.
func (s *service) Generate(ctx context.Context, profileID, orgID uint, req dtos.GenerateLeadsDTO) (dtos.GenerateLeadsResultDTO, error) {
	var result dtos.GenerateLeadsResultDTO
	if s.webhookURL == "" {
		return result, ErrWebhookMissing
	}
	if req.Limit <= 0 {
		req.Limit = defaultGenerateLimit
	}

	var raw json.RawMessage
	err := notify.PostJSON(ctx, s.http, s.webhookURL, generateRequest{
		OrganizationID: orgID,
		ProfileID:      profileID,
		Segment:        req.Segment,
		City:           req.City,
		Limit:          req.Limit,
	}, &raw)
	if err != nil {
		return result, fmt.Errorf(constant.LEAD_GENERATION_FAILED, err.Error())
	}

	generated, err := parseGenerated(raw)
	if err != nil {
		return result, fmt.Errorf(constant.LEAD_GENERATION_FAILED, err.Error())
	}
	result.Received = len(generated)

	for _, g := range generated {
		created, err := s.CreateIfAbsent(ctx, entities.Lead{
			OrganizationID: orgID,
			ProfileID:      profileID,
			BusinessName:   g.BusinessName,
			PhoneNumber:    g.PhoneNumber,
			Segment:        firstNonEmpty(g.Segment, req.Segment),
			City:           firstNonEmpty(g.City, req.City),
		})
		if err != nil {
			zap.L().Warn("skipping generated lead",
				zap.Uint("organization_id", orgID),
				zap.String("phone", g.PhoneNumber),
				zap.Error(err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Existing++
		}
	}
	return result, nil
}

var (
	nameKeys    = []string{"business_name", "businessName", "name", "title"}
	phoneKeys   = []string{"phone_number", "phoneNumber", "phone", "telephone", "whatsapp"}
	segmentKeys = []string{"segment", "category"}
	cityKeys    = []string{"city", "location"}
)

// parseGenerated accepts a bare array of leads or an object wrapping one
// under "leads", "data" or "results".
func parseGenerated(raw json.RawMessage) ([]dtos.GeneratedLeadDTO, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var items []map[string]any
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
	} else {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, err
		}
		for _, key := range []string{"leads", "data", "results"} {
			if v, ok := envelope[key]; ok {
				if err := json.Unmarshal(v, &items); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	leads := make([]dtos.GeneratedLeadDTO, 0, len(items))
	for _, item := range items {
		leads = append(leads, dtos.GeneratedLeadDTO{
			BusinessName: lookup(item, nameKeys),
			PhoneNumber:  lookup(item, phoneKeys),
			Segment:      lookup(item, segmentKeys),
			City:         lookup(item, cityKeys),
		})
	}
	return leads, nil
}

func lookup(item map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
