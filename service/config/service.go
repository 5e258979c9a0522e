package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/thirukguru/aws-cloud-wellness/shared/awserr"
)

// NewService creates a Config/KMS service for the region of cfg.
func NewService(cfg aws.Config) Service {
	return &service{
		configClient: configservice.NewFromConfig(cfg),
		kmsClient:    kms.NewFromConfig(cfg),
	}
}

// NewServiceWithClients creates a Config/KMS service around existing clients.
func NewServiceWithClients(configClient ConfigClientAPI, kmsClient KMSClientAPI) Service {
	return &service{configClient: configClient, kmsClient: kmsClient}
}

// RecorderState reads the first recorder, its status and the first delivery channel status.
func (s *service) RecorderState(ctx context.Context) (RecorderState, error) {
	var state RecorderState

	statuses, err := s.configClient.DescribeConfigurationRecorderStatus(ctx, &configservice.DescribeConfigurationRecorderStatusInput{})
	if err != nil {
		return state, fmt.Errorf("failed to describe configuration recorder status: %w", err)
	}
	if len(statuses.ConfigurationRecordersStatus) > 0 {
		state.Recording = statuses.ConfigurationRecordersStatus[0].Recording
	}

	recorders, err := s.configClient.DescribeConfigurationRecorders(ctx, &configservice.DescribeConfigurationRecordersInput{})
	if err != nil {
		return state, fmt.Errorf("failed to describe configuration recorders: %w", err)
	}
	if len(recorders.ConfigurationRecorders) > 0 {
		state.Present = true
		if group := recorders.ConfigurationRecorders[0].RecordingGroup; group != nil {
			state.AllSupported = group.AllSupported
			state.IncludeGlobalResourceTypes = group.IncludeGlobalResourceTypes
		}
	}

	channels, err := s.configClient.DescribeDeliveryChannelStatus(ctx, &configservice.DescribeDeliveryChannelStatusInput{})
	if err != nil {
		return state, fmt.Errorf("failed to describe delivery channel status: %w", err)
	}
	if len(channels.DeliveryChannelsStatus) > 0 {
		channel := channels.DeliveryChannelsStatus[0]
		if channel.ConfigHistoryDeliveryInfo != nil {
			state.HistoryDelivery = strings.ToUpper(string(channel.ConfigHistoryDeliveryInfo.LastStatus))
		}
		if channel.ConfigStreamDeliveryInfo != nil {
			state.StreamDelivery = strings.ToUpper(string(channel.ConfigStreamDeliveryInfo.LastStatus))
		}
	}

	return state, nil
}

// UnrotatedCustomerKeys returns the ARNs of customer managed keys without
// automatic rotation. Keys the caller may not inspect are skipped.
func (s *service) UnrotatedCustomerKeys(ctx context.Context) ([]string, error) {
	var arns []string

	paginator := kms.NewListKeysPaginator(s.kmsClient, &kms.ListKeysInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", err)
		}

		for _, key := range page.Keys {
			keyInfo, err := s.kmsClient.DescribeKey(ctx, &kms.DescribeKeyInput{KeyId: key.KeyId})
			if err != nil {
				if awserr.IsAccessDenied(err) {
					continue
				}
				return nil, fmt.Errorf("failed to describe key %s: %w", aws.ToString(key.KeyId), err)
			}
			meta := keyInfo.KeyMetadata
			if meta == nil || meta.KeyManager == kmstypes.KeyManagerTypeAws {
				continue
			}
			if strings.Contains(aws.ToString(meta.Description), awsDefaultKeyDescription) {
				continue
			}
			if meta.KeyState == kmstypes.KeyStatePendingDeletion || meta.KeyState == kmstypes.KeyStatePendingImport {
				continue
			}

			rotation, err := s.kmsClient.GetKeyRotationStatus(ctx, &kms.GetKeyRotationStatusInput{KeyId: key.KeyId})
			if err != nil {
				if awserr.IsAccessDenied(err) {
					continue
				}
				return nil, fmt.Errorf("failed to get rotation status of key %s: %w", aws.ToString(key.KeyId), err)
			}
			if !rotation.KeyRotationEnabled {
				arns = append(arns, aws.ToString(meta.Arn))
			}
		}
	}

	return arns, nil
}
