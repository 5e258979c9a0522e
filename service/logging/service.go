package logging

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

var logGroupPattern = regexp.MustCompile(`log-group:(.+?):`)

// NewService creates a logging service for the region of cfg.
func NewService(cfg aws.Config) Service {
	return &service{
		logsClient: cloudwatchlogs.NewFromConfig(cfg),
		cwClient:   cloudwatch.NewFromConfig(cfg),
		snsClient:  sns.NewFromConfig(cfg),
	}
}

// NewServiceWithClients creates a logging service around existing clients.
func NewServiceWithClients(logsClient LogsClientAPI, cwClient CloudWatchClientAPI, snsClient SNSClientAPI) Service {
	return &service{logsClient: logsClient, cwClient: cwClient, snsClient: snsClient}
}

// LogGroupName extracts the log group name from a CloudTrail
// CloudWatchLogsLogGroupArn. ok is false for anything else.
func LogGroupName(arn string) (name string, ok bool) {
	m := logGroupPattern.FindStringSubmatch(arn)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (s *service) MetricFilters(ctx context.Context, logGroupName string) ([]MetricFilter, error) {
	var filters []MetricFilter
	paginator := cloudwatchlogs.NewDescribeMetricFiltersPaginator(s.logsClient, &cloudwatchlogs.DescribeMetricFiltersInput{
		LogGroupName: aws.String(logGroupName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe metric filters of %s: %w", logGroupName, err)
		}
		for _, f := range page.MetricFilters {
			filter := MetricFilter{
				Name:    aws.ToString(f.FilterName),
				Pattern: aws.ToString(f.FilterPattern),
			}
			if len(f.MetricTransformations) > 0 {
				filter.MetricName = aws.ToString(f.MetricTransformations[0].MetricName)
				filter.MetricNamespace = aws.ToString(f.MetricTransformations[0].MetricNamespace)
			}
			filters = append(filters, filter)
		}
	}
	return filters, nil
}

// AlarmActions returns the actions of every alarm watching the metric.
func (s *service) AlarmActions(ctx context.Context, metricName, namespace string) ([]string, error) {
	out, err := s.cwClient.DescribeAlarmsForMetric(ctx, &cloudwatch.DescribeAlarmsForMetricInput{
		MetricName: aws.String(metricName),
		Namespace:  aws.String(namespace),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe alarms for %s/%s: %w", namespace, metricName, err)
	}
	var actions []string
	for _, alarm := range out.MetricAlarms {
		actions = append(actions, alarm.AlarmActions...)
	}
	return actions, nil
}

// HasSubscribers reports whether the topic has at least one subscription.
// Only the first page is read since one subscriber is enough.
func (s *service) HasSubscribers(ctx context.Context, topicARN string) (bool, error) {
	out, err := s.snsClient.ListSubscriptionsByTopic(ctx, &sns.ListSubscriptionsByTopicInput{
		TopicArn: aws.String(topicARN),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list subscriptions of %s: %w", topicARN, err)
	}
	return len(out.Subscriptions) > 0, nil
}
