// Package inspector reads the Amazon Inspector enablement of the account.
package inspector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/inspector2"
	"github.com/aws/aws-sdk-go-v2/service/inspector2/types"
)

// InspectorClientAPI is the interface for the Inspector client methods used by the service.
type InspectorClientAPI interface {
	BatchGetAccountStatus(ctx context.Context, params *inspector2.BatchGetAccountStatusInput, optFns ...func(*inspector2.Options)) (*inspector2.BatchGetAccountStatusOutput, error)
}

type service struct {
	client InspectorClientAPI
}

// Service is the interface for Inspector reads
type Service interface {
	Enabled(ctx context.Context) (bool, error)
}

// NewService creates a new Inspector service
func NewService(cfg aws.Config) Service {
	return &service{
		client: inspector2.NewFromConfig(cfg),
	}
}

// NewServiceWithClient creates an Inspector service around an existing client.
func NewServiceWithClient(client InspectorClientAPI) Service {
	return &service{client: client}
}

// Enabled reports whether Inspector is enabled for the caller account or
// scans at least one resource type.
func (s *service) Enabled(ctx context.Context) (bool, error) {
	resp, err := s.client.BatchGetAccountStatus(ctx, &inspector2.BatchGetAccountStatusInput{})
	if err != nil {
		return false, fmt.Errorf("failed to get inspector account status: %w", err)
	}

	for _, account := range resp.Accounts {
		if account.State != nil && account.State.Status == types.StatusEnabled {
			return true, nil
		}
		rs := account.ResourceState
		if rs == nil {
			continue
		}
		for _, state := range []*types.State{rs.Ec2, rs.Ecr, rs.Lambda} {
			if state != nil && state.Status == types.StatusEnabled {
				return true, nil
			}
		}
	}
	return false, nil
}
