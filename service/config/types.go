// Package config reads AWS Config recording and KMS key rotation state of a region.
package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// ConfigClientAPI is the interface for the AWS Config client methods used by the service.
type ConfigClientAPI interface {
	DescribeConfigurationRecorders(ctx context.Context, params *configservice.DescribeConfigurationRecordersInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigurationRecordersOutput, error)
	DescribeConfigurationRecorderStatus(ctx context.Context, params *configservice.DescribeConfigurationRecorderStatusInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigurationRecorderStatusOutput, error)
	DescribeDeliveryChannelStatus(ctx context.Context, params *configservice.DescribeDeliveryChannelStatusInput, optFns ...func(*configservice.Options)) (*configservice.DescribeDeliveryChannelStatusOutput, error)
}

// KMSClientAPI is the interface for the KMS client methods used by the service.
type KMSClientAPI interface {
	ListKeys(ctx context.Context, params *kms.ListKeysInput, optFns ...func(*kms.Options)) (*kms.ListKeysOutput, error)
	DescribeKey(ctx context.Context, params *kms.DescribeKeyInput, optFns ...func(*kms.Options)) (*kms.DescribeKeyOutput, error)
	GetKeyRotationStatus(ctx context.Context, params *kms.GetKeyRotationStatusInput, optFns ...func(*kms.Options)) (*kms.GetKeyRotationStatusOutput, error)
}

// RecorderState summarises the Config recorder and delivery channel of a region.
type RecorderState struct {
	// Present is false when the region has no configuration recorder.
	Present                    bool
	Recording                  bool
	AllSupported               bool
	IncludeGlobalResourceTypes bool
	// HistoryDelivery and StreamDelivery are empty when the region has no
	// delivery channel status.
	HistoryDelivery string
	StreamDelivery  string
}

type service struct {
	configClient ConfigClientAPI
	kmsClient    KMSClientAPI
}

// Service is the interface for Config and KMS reads
type Service interface {
	RecorderState(ctx context.Context) (RecorderState, error)
	UnrotatedCustomerKeys(ctx context.Context) ([]string, error)
}

// awsDefaultKeyDescription marks the default keys AWS services create.
const awsDefaultKeyDescription = "Default master key that protects my"
