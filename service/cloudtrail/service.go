package cloudtrail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/thirukguru/aws-cloud-wellness/model"
)

// NewService creates a CloudTrail service for the region of cfg.
func NewService(cfg aws.Config) Service {
	return NewServiceWithClient(cloudtrail.NewFromConfig(cfg), cfg.Region)
}

// NewServiceWithClient creates a CloudTrail service around an existing client.
func NewServiceWithClient(client CloudTrailClientAPI, region string) Service {
	return &service{client: client, region: region}
}

func (s *service) ListTrails(ctx context.Context) ([]model.Trail, error) {
	out, err := s.client.DescribeTrails(ctx, &cloudtrail.DescribeTrailsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe trails in %s: %w", s.region, err)
	}

	var trails []model.Trail
	for _, t := range out.TrailList {
		multiRegion := aws.ToBool(t.IsMultiRegionTrail)
		homeRegion := aws.ToString(t.HomeRegion)
		if multiRegion && homeRegion != s.region {
			continue
		}
		trails = append(trails, model.Trail{
			Name:                      aws.ToString(t.Name),
			TrailARN:                  aws.ToString(t.TrailARN),
			HomeRegion:                homeRegion,
			IsMultiRegionTrail:        multiRegion,
			LogFileValidationEnabled:  aws.ToBool(t.LogFileValidationEnabled),
			S3BucketName:              aws.ToString(t.S3BucketName),
			CloudWatchLogsLogGroupArn: aws.ToString(t.CloudWatchLogsLogGroupArn),
			KmsKeyID:                  aws.ToString(t.KmsKeyId),
		})
	}
	return trails, nil
}

func (s *service) IsLogging(ctx context.Context, trailARN string) (bool, error) {
	out, err := s.client.GetTrailStatus(ctx, &cloudtrail.GetTrailStatusInput{Name: aws.String(trailARN)})
	if err != nil {
		return false, fmt.Errorf("failed to get status of trail %s: %w", trailARN, err)
	}
	return aws.ToBool(out.IsLogging), nil
}
