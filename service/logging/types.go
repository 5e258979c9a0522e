// Package logging reads the CloudWatch metric filter, alarm and SNS subscriber
// chain that turns CloudTrail log events into notifications.
package logging

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// LogsClientAPI is the interface for the CloudWatch Logs client methods used by the service.
type LogsClientAPI interface {
	DescribeMetricFilters(ctx context.Context, params *cloudwatchlogs.DescribeMetricFiltersInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeMetricFiltersOutput, error)
}

// CloudWatchClientAPI is the interface for the CloudWatch client methods used by the service.
type CloudWatchClientAPI interface {
	DescribeAlarmsForMetric(ctx context.Context, params *cloudwatch.DescribeAlarmsForMetricInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.DescribeAlarmsForMetricOutput, error)
}

// SNSClientAPI is the interface for the SNS client methods used by the service.
type SNSClientAPI interface {
	ListSubscriptionsByTopic(ctx context.Context, params *sns.ListSubscriptionsByTopicInput, optFns ...func(*sns.Options)) (*sns.ListSubscriptionsByTopicOutput, error)
}

// MetricFilter is a log group metric filter and the metric it publishes.
type MetricFilter struct {
	Name            string
	Pattern         string
	MetricName      string
	MetricNamespace string
}

type service struct {
	logsClient LogsClientAPI
	cwClient   CloudWatchClientAPI
	snsClient  SNSClientAPI
}

// Service is the interface for the reads of one region.
type Service interface {
	MetricFilters(ctx context.Context, logGroupName string) ([]MetricFilter, error)
	AlarmActions(ctx context.Context, metricName, namespace string) ([]string, error)
	HasSubscribers(ctx context.Context, topicARN string) (bool, error)
}
