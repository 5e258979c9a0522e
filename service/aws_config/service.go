// Package awsconfig loads the AWS configuration every collaborator is built from.
package awsconfig

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// defaultRegion is used for global APIs when nothing else names a region.
const defaultRegion = "us-east-1"

const retryMaxAttempts = 5

// loadSharedConfigProfile is a variable to allow mocking in tests.
var loadSharedConfigProfile = config.LoadSharedConfigProfile

// NewService creates a new AWS configuration service.
func NewService() Service {
	return &service{}
}

// ForRegion returns a copy of cfg pinned to region.
func ForRegion(cfg aws.Config, region string) aws.Config {
	regional := cfg.Copy()
	regional.Region = region
	return regional
}

func (s *service) GetAWSCfg(ctx context.Context, opts Options) (aws.Config, error) {
	// Profiles that assume a role with MFA are resolved by hand so the
	// token prompt happens before any spinner starts.
	if opts.Profile != "" {
		sharedCfg, err := loadSharedConfigProfile(ctx, opts.Profile)
		if err == nil && sharedCfg.RoleARN != "" && sharedCfg.MFASerial != "" {
			return s.loadConfigWithManualMFA(ctx, opts, sharedCfg)
		}
	}

	loadOpts := baseLoadOptions(opts)
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	loadOpts = append(loadOpts, config.WithAssumeRoleCredentialOptions(func(options *stscreds.AssumeRoleOptions) {
		options.TokenProvider = stscreds.StdinTokenProvider
	}))

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	if cfg.Credentials != nil {
		if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
			return aws.Config{}, fmt.Errorf("failed to retrieve credentials: %w", err)
		}
	}

	return cfg, nil
}

// baseLoadOptions applies the retry and per-call timeout policy shared by every client.
func baseLoadOptions(opts Options) []func(*config.LoadOptions) error {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRetryMode(aws.RetryModeAdaptive),
		config.WithRetryMaxAttempts(retryMaxAttempts),
	}
	if opts.CallTimeout > 0 {
		loadOpts = append(loadOpts, config.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(opts.CallTimeout)))
	}
	return loadOpts
}

func (s *service) loadConfigWithManualMFA(ctx context.Context, opts Options, sharedCfg config.SharedConfig) (aws.Config, error) {
	if sharedCfg.RoleARN == "" || sharedCfg.MFASerial == "" {
		return aws.Config{}, fmt.Errorf("profile %s missing role_arn or mfa_serial", opts.Profile)
	}

	sourceProfile := sharedCfg.SourceProfileName
	if sourceProfile == "" {
		sourceProfile = "default"
	}

	region := opts.Region
	if region == "" {
		region = sharedCfg.Region
	}
	if region == "" {
		region = defaultRegion
	}

	baseOpts := append(baseLoadOptions(opts),
		config.WithSharedConfigProfile(sourceProfile),
		config.WithRegion(region),
	)
	baseCfg, err := config.LoadDefaultConfig(ctx, baseOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load source profile config: %w", err)
	}

	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(baseCfg), sharedCfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
		o.SerialNumber = aws.String(sharedCfg.MFASerial)
		o.TokenProvider = stscreds.StdinTokenProvider
	})

	finalOpts := append(baseLoadOptions(opts),
		config.WithCredentialsProvider(aws.NewCredentialsCache(provider)),
		config.WithRegion(region),
	)
	finalCfg, err := config.LoadDefaultConfig(ctx, finalOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load final config with mfa: %w", err)
	}

	if finalCfg.Credentials != nil {
		if _, err := finalCfg.Credentials.Retrieve(ctx); err != nil {
			return aws.Config{}, fmt.Errorf("failed to retrieve credentials (MFA might have failed): %w", err)
		}
	}

	return finalCfg, nil
}
