// Package campaign sends one message to a list of leads, one at a time with
// a fixed pause between sends, skipping numbers that were already messaged.
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/entities"
	"github.com/waassist/connector/pkg/gateway"
	"github.com/waassist/connector/pkg/ledger"
	"github.com/waassist/connector/pkg/utils"
	"go.uber.org/zap"
)

type GatewayProvider interface {
	For(ctx context.Context, orgID uint) (gateway.Gateway, error)
}

// LeadStore keeps the leads a campaign reached.
type LeadStore interface {
	CreateIfAbsent(ctx context.Context, lead entities.Lead) (bool, error)
}

type Service interface {
	Dispatch(ctx context.Context, profileID, orgID uint, req dtos.DispatchCampaignDTO) (dtos.CampaignReportDTO, error)
	Ledger(ctx context.Context, orgID uint) ([]ledger.Entry, error)
}

type service struct {
	gateways GatewayProvider
	ledger   ledger.Ledger
	leads    LeadStore
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	running  *utils.KeyedLocks[uint]
}

func NewService(g GatewayProvider, l ledger.Ledger, leads LeadStore, delay time.Duration) Service {
	return &service{
		gateways: g,
		ledger:   l,
		leads:    leads,
		delay:    delay,
		sleep:    sleepContext,
		running:  utils.NewKeyedLocks[uint](),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch runs a campaign. Targets already in the ledger, or repeated in
// the list, are skipped. A failed send is recorded and the loop moves on;
// nothing is retried. If ctx ends mid-way the report covers what was done.
// Campaigns of one organization run one after another, so a later run sees
// every number the earlier one reached.
func (s *service) Dispatch(ctx context.Context, profileID, orgID uint, req dtos.DispatchCampaignDTO) (dtos.CampaignReportDTO, error) {
	report := dtos.CampaignReportDTO{Failures: []dtos.CampaignFailureDTO{}}

	gw, err := s.gateways.For(ctx, orgID)
	if err != nil {
		return report, err
	}

	unlock := s.running.Lock(orgID)
	defer unlock()

	pending, err := s.filter(ctx, orgID, req.Targets, &report)
	if err != nil {
		return report, err
	}

	start := time.Now()
	defer func() { campaignDurationHist.Observe(time.Since(start).Seconds()) }()

	// bookkeeping must survive a cancelled request
	persistCtx := context.WithoutCancel(ctx)
	var reached []dtos.CampaignTargetDTO

	for i, target := range pending {
		if i > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				report.Interrupted = true
				break
			}
		} else if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		message := Render(req.Message, target)
		report.Attempted++

		res, err := gw.SendText(ctx, target.PhoneNumber, message)
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, dtos.CampaignFailureDTO{
				PhoneNumber: target.PhoneNumber,
				Error:       err.Error(),
			})
			campaignSendCounter.WithLabelValues("failed").Inc()
			zap.L().Warn("campaign send failed",
				zap.Uint("organization_id", orgID),
				zap.String("phone", target.PhoneNumber),
				zap.Error(err))
			continue
		}

		report.Succeeded++
		campaignSendCounter.WithLabelValues("sent").Inc()
		reached = append(reached, target)

		phone := res.Phone
		if phone == "" {
			phone = target.PhoneNumber
		}
		if err := s.ledger.Append(persistCtx, orgID, ledger.Entry{Phone: phone, Message: message, SentAt: time.Now().UTC()}); err != nil {
			zap.L().Error("campaign ledger append failed",
				zap.Uint("organization_id", orgID),
				zap.String("phone", phone),
				zap.Error(err))
		}
	}

	s.storeLeads(persistCtx, profileID, orgID, reached)

	zap.L().Info("campaign dispatched",
		zap.Uint("organization_id", orgID),
		zap.Uint("profile_id", profileID),
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("skipped_as_duplicate", report.SkippedAsDuplicate),
		zap.Bool("interrupted", report.Interrupted))
	return report, nil
}

// filter drops targets already messaged by the organization and repeats
// within the list, keeping list order.
func (s *service) filter(ctx context.Context, orgID uint, targets []dtos.CampaignTargetDTO, report *dtos.CampaignReportDTO) ([]dtos.CampaignTargetDTO, error) {
	pending := make([]dtos.CampaignTargetDTO, 0, len(targets))
	seen := make(map[string]bool, len(targets))

	for _, target := range targets {
		phone := gateway.NormalizePhone(target.PhoneNumber)
		if phone != "" {
			if seen[phone] {
				report.SkippedAsDuplicate++
				campaignSendCounter.WithLabelValues("duplicate").Inc()
				continue
			}
			sent, err := s.ledger.Contains(ctx, orgID, phone)
			if err != nil {
				return nil, fmt.Errorf("ledger lookup failed: %w", err)
			}
			if sent {
				report.SkippedAsDuplicate++
				campaignSendCounter.WithLabelValues("duplicate").Inc()
				continue
			}
			seen[phone] = true
		}
		pending = append(pending, target)
	}
	return pending, nil
}

func (s *service) storeLeads(ctx context.Context, profileID, orgID uint, targets []dtos.CampaignTargetDTO) {
	if s.leads == nil {
		return
	}
	for _, target := range targets {
		_, err := s.leads.CreateIfAbsent(ctx, entities.Lead{
			OrganizationID: orgID,
			ProfileID:      profileID,
			BusinessName:   target.BusinessName,
			PhoneNumber:    target.PhoneNumber,
			Segment:        target.Segment,
			City:           target.City,
		})
		if err != nil {
			zap.L().Warn("storing campaign lead failed",
				zap.Uint("organization_id", orgID),
				zap.String("phone", target.PhoneNumber),
				zap.Error(err))
		}
	}
}

func (s *service) Ledger(ctx context.Context, orgID uint) ([]ledger.Entry, error) {
	return s.ledger.Entries(ctx, orgID)
}
