package awsconfig

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

type service struct{}

// Options selects the credentials and transport settings of a run.
type Options struct {
	Region      string
	Profile     string
	CallTimeout time.Duration
}

// Service is the interface for AWS configuration service.
type Service interface {
	GetAWSCfg(ctx context.Context, opts Options) (aws.Config, error)
}
