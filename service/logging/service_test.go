package logging

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogsClient struct {
	filters []logstypes.MetricFilter
}

func (m *mockLogsClient) DescribeMetricFilters(ctx context.Context, params *cloudwatchlogs.DescribeMetricFiltersInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeMetricFiltersOutput, error) {
	return &cloudwatchlogs.DescribeMetricFiltersOutput{MetricFilters: m.filters}, nil
}

type mockCloudWatchClient struct {
	alarms []cwtypes.MetricAlarm
}

func (m *mockCloudWatchClient) DescribeAlarmsForMetric(ctx context.Context, params *cloudwatch.DescribeAlarmsForMetricInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.DescribeAlarmsForMetricOutput, error) {
	return &cloudwatch.DescribeAlarmsForMetricOutput{MetricAlarms: m.alarms}, nil
}

type mockSNSClient struct {
	subscriptions map[string]int
}

func (m *mockSNSClient) ListSubscriptionsByTopic(ctx context.Context, params *sns.ListSubscriptionsByTopicInput, optFns ...func(*sns.Options)) (*sns.ListSubscriptionsByTopicOutput, error) {
	out := &sns.ListSubscriptionsByTopicOutput{}
	for i := 0; i < m.subscriptions[aws.ToString(params.TopicArn)]; i++ {
		out.Subscriptions = append(out.Subscriptions, snstypes.Subscription{TopicArn: params.TopicArn})
	}
	return out, nil
}

func TestLogGroupName(t *testing.T) {
	tests := []struct {
		arn    string
		want   string
		wantOK bool
	}{
		{"arn:aws:logs:us-east-1:123456789012:log-group:CloudTrail/Default:*", "CloudTrail/Default", true},
		{"arn:aws:logs:us-east-1:123456789012:log-group:trail:*", "trail", true},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := LogGroupName(tt.arn)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("LogGroupName(%q) = %q, %v; want %q, %v", tt.arn, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMetricChain(t *testing.T) {
	topic := "arn:aws:sns:us-east-1:123456789012:security"
	svc := NewServiceWithClients(
		&mockLogsClient{filters: []logstypes.MetricFilter{{
			FilterName:    aws.String("root"),
			FilterPattern: aws.String(`{ $.userIdentity.type = "Root" }`),
			MetricTransformations: []logstypes.MetricTransformation{{
				MetricName:      aws.String("RootUsage"),
				MetricNamespace: aws.String("CISBenchmark"),
			}},
		}}},
		&mockCloudWatchClient{alarms: []cwtypes.MetricAlarm{{AlarmActions: []string{topic}}}},
		&mockSNSClient{subscriptions: map[string]int{topic: 1}},
	)

	filters, err := svc.MetricFilters(context.Background(), "CloudTrail/Default")
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, "RootUsage", filters[0].MetricName)
	assert.Equal(t, "CISBenchmark", filters[0].MetricNamespace)

	actions, err := svc.AlarmActions(context.Background(), "RootUsage", "CISBenchmark")
	require.NoError(t, err)
	assert.Equal(t, []string{topic}, actions)

	ok, err := svc.HasSubscribers(context.Background(), topic)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasSubscribers(context.Background(), "arn:aws:sns:us-east-1:123456789012:empty")
	require.NoError(t, err)
	assert.False(t, ok)
}
