// Package events reads the EventBridge rules of a region.
package events

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/thirukguru/aws-cloud-wellness/model"
)

// EventBridgeClientAPI is the interface for the EventBridge client methods used by the service.
type EventBridgeClientAPI interface {
	ListRules(ctx context.Context, params *eventbridge.ListRulesInput, optFns ...func(*eventbridge.Options)) (*eventbridge.ListRulesOutput, error)
}

type service struct {
	client EventBridgeClientAPI
}

// Service is the interface for EventBridge reads
type Service interface {
	ListRules(ctx context.Context) ([]model.EventRule, error)
}

// NewService creates an EventBridge service for the region of cfg.
func NewService(cfg aws.Config) Service {
	return &service{client: eventbridge.NewFromConfig(cfg)}
}

// NewServiceWithClient creates an EventBridge service around an existing client.
func NewServiceWithClient(client EventBridgeClientAPI) Service {
	return &service{client: client}
}

// ListRules returns every rule on the default event bus.
func (s *service) ListRules(ctx context.Context) ([]model.EventRule, error) {
	var rules []model.EventRule
	input := &eventbridge.ListRulesInput{}
	for {
		out, err := s.client.ListRules(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list event rules: %w", err)
		}
		for _, r := range out.Rules {
			rules = append(rules, model.EventRule{
				Name:         aws.ToString(r.Name),
				State:        string(r.State),
				EventPattern: aws.ToString(r.EventPattern),
			})
		}
		if aws.ToString(out.NextToken) == "" {
			break
		}
		input.NextToken = out.NextToken
	}
	return rules, nil
}
