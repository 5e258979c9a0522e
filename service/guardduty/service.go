// Package guardduty reads the GuardDuty detectors of a region.
package guardduty

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/guardduty"
	"github.com/aws/aws-sdk-go-v2/service/guardduty/types"
)

// GuardDutyClientAPI is the interface for the GuardDuty client methods used by the service.
type GuardDutyClientAPI interface {
	ListDetectors(ctx context.Context, params *guardduty.ListDetectorsInput, optFns ...func(*guardduty.Options)) (*guardduty.ListDetectorsOutput, error)
	GetDetector(ctx context.Context, params *guardduty.GetDetectorInput, optFns ...func(*guardduty.Options)) (*guardduty.GetDetectorOutput, error)
}

// Detector is a GuardDuty detector and whether it is enabled.
type Detector struct {
	ID      string
	Enabled bool
}

type service struct {
	client GuardDutyClientAPI
}

// Service is the interface for GuardDuty reads
type Service interface {
	Detectors(ctx context.Context) ([]Detector, error)
}

// NewService creates a GuardDuty service for the region of cfg.
func NewService(cfg aws.Config) Service {
	return &service{
		client: guardduty.NewFromConfig(cfg),
	}
}

// NewServiceWithClient creates a GuardDuty service around an existing client.
func NewServiceWithClient(client GuardDutyClientAPI) Service {
	return &service{client: client}
}

// Detectors returns every detector of the region. An empty result means
// GuardDuty was never enabled there.
func (s *service) Detectors(ctx context.Context) ([]Detector, error) {
	var detectors []Detector
	paginator := guardduty.NewListDetectorsPaginator(s.client, &guardduty.ListDetectorsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list detectors: %w", err)
		}
		for _, id := range page.DetectorIds {
			detector, err := s.client.GetDetector(ctx, &guardduty.GetDetectorInput{
				DetectorId: aws.String(id),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to get detector %s: %w", id, err)
			}
			detectors = append(detectors, Detector{
				ID:      id,
				Enabled: detector.Status == types.DetectorStatusEnabled,
			})
		}
	}
	return detectors, nil
}
