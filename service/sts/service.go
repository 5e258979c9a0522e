// Package awssts provides a service for interacting with AWS STS.
package awssts

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// NewService creates a new STS service.
func NewService(awsconfig aws.Config) Service {
	return &service{client: sts.NewFromConfig(awsconfig)}
}

// NewServiceWithClient creates an STS service around an existing client.
func NewServiceWithClient(client STSClientAPI) Service {
	return &service{client: client}
}

func (s *service) GetAccountID(ctx context.Context) (string, error) {
	out, err := s.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %w", err)
	}
	account := aws.ToString(out.Account)
	if account == "" {
		return "", errors.New("caller identity has no account")
	}
	return account, nil
}
