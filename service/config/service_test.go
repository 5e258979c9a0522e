package config

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/configservice"
	cfgtypes "github.com/aws/aws-sdk-go-v2/service/configservice/types"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConfigClient struct {
	recorders []cfgtypes.ConfigurationRecorder
	statuses  []cfgtypes.ConfigurationRecorderStatus
	channels  []cfgtypes.DeliveryChannelStatus
}

func (m *mockConfigClient) DescribeConfigurationRecorders(ctx context.Context, params *configservice.DescribeConfigurationRecordersInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigurationRecordersOutput, error) {
	return &configservice.DescribeConfigurationRecordersOutput{ConfigurationRecorders: m.recorders}, nil
}

func (m *mockConfigClient) DescribeConfigurationRecorderStatus(ctx context.Context, params *configservice.DescribeConfigurationRecorderStatusInput, optFns ...func(*configservice.Options)) (*configservice.DescribeConfigurationRecorderStatusOutput, error) {
	return &configservice.DescribeConfigurationRecorderStatusOutput{ConfigurationRecordersStatus: m.statuses}, nil
}

func (m *mockConfigClient) DescribeDeliveryChannelStatus(ctx context.Context, params *configservice.DescribeDeliveryChannelStatusInput, optFns ...func(*configservice.Options)) (*configservice.DescribeDeliveryChannelStatusOutput, error) {
	return &configservice.DescribeDeliveryChannelStatusOutput{DeliveryChannelsStatus: m.channels}, nil
}

type mockKMSClient struct {
	keys     map[string]kmstypes.KeyMetadata
	rotation map[string]bool
	denied   map[string]bool
}

func (m *mockKMSClient) ListKeys(ctx context.Context, params *kms.ListKeysInput, optFns ...func(*kms.Options)) (*kms.ListKeysOutput, error) {
	var entries []kmstypes.KeyListEntry
	for _, id := range []string{"k1", "k2", "k3", "k4"} {
		if _, ok := m.keys[id]; ok {
			entries = append(entries, kmstypes.KeyListEntry{KeyId: aws.String(id)})
		}
	}
	return &kms.ListKeysOutput{Keys: entries}, nil
}

func (m *mockKMSClient) DescribeKey(ctx context.Context, params *kms.DescribeKeyInput, optFns ...func(*kms.Options)) (*kms.DescribeKeyOutput, error) {
	meta := m.keys[aws.ToString(params.KeyId)]
	return &kms.DescribeKeyOutput{KeyMetadata: &meta}, nil
}

func (m *mockKMSClient) GetKeyRotationStatus(ctx context.Context, params *kms.GetKeyRotationStatusInput, optFns ...func(*kms.Options)) (*kms.GetKeyRotationStatusOutput, error) {
	id := aws.ToString(params.KeyId)
	if m.denied[id] {
		return nil, &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}
	}
	return &kms.GetKeyRotationStatusOutput{KeyRotationEnabled: m.rotation[id]}, nil
}

func TestRecorderState(t *testing.T) {
	client := &mockConfigClient{
		recorders: []cfgtypes.ConfigurationRecorder{{
			RecordingGroup: &cfgtypes.RecordingGroup{AllSupported: true, IncludeGlobalResourceTypes: true},
		}},
		statuses: []cfgtypes.ConfigurationRecorderStatus{{Recording: true}},
		channels: []cfgtypes.DeliveryChannelStatus{{
			ConfigHistoryDeliveryInfo: &cfgtypes.ConfigExportDeliveryInfo{LastStatus: cfgtypes.DeliveryStatusSuccess},
			ConfigStreamDeliveryInfo:  &cfgtypes.ConfigStreamDeliveryInfo{LastStatus: cfgtypes.DeliveryStatusFailure},
		}},
	}
	state, err := NewServiceWithClients(client, &mockKMSClient{}).RecorderState(context.Background())
	require.NoError(t, err)
	assert.True(t, state.Present)
	assert.True(t, state.Recording)
	assert.True(t, state.AllSupported)
	assert.True(t, state.IncludeGlobalResourceTypes)
	assert.Equal(t, "SUCCESS", state.HistoryDelivery)
	assert.Equal(t, "FAILURE", state.StreamDelivery)
}

func TestRecorderStateWithoutRecorder(t *testing.T) {
	state, err := NewServiceWithClients(&mockConfigClient{}, &mockKMSClient{}).RecorderState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RecorderState{}, state)
}

func TestUnrotatedCustomerKeys(t *testing.T) {
	client := &mockKMSClient{
		keys: map[string]kmstypes.KeyMetadata{
			"k1": {Arn: aws.String("arn:aws:kms:us-east-1:123456789012:key/k1"), KeyManager: kmstypes.KeyManagerTypeCustomer, KeyState: kmstypes.KeyStateEnabled},
			"k2": {Arn: aws.String("arn:aws:kms:us-east-1:123456789012:key/k2"), KeyManager: kmstypes.KeyManagerTypeAws},
			"k3": {Arn: aws.String("arn:aws:kms:us-east-1:123456789012:key/k3"), KeyManager: kmstypes.KeyManagerTypeCustomer, KeyState: kmstypes.KeyStateEnabled},
			"k4": {Arn: aws.String("arn:aws:kms:us-east-1:123456789012:key/k4"), KeyManager: kmstypes.KeyManagerTypeCustomer, KeyState: kmstypes.KeyStateEnabled},
		},
		rotation: map[string]bool{"k3": true},
		denied:   map[string]bool{"k4": true},
	}
	arns, err := NewServiceWithClients(&mockConfigClient{}, client).UnrotatedCustomerKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"arn:aws:kms:us-east-1:123456789012:key/k1"}, arns)
}
