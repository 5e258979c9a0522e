// Package cloudtrail reads CloudTrail trail configuration and logging status.
package cloudtrail

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/thirukguru/aws-cloud-wellness/model"
)

// CloudTrailClientAPI is the interface for the AWS CloudTrail client methods used by the service.
type CloudTrailClientAPI interface {
	DescribeTrails(ctx context.Context, params *cloudtrail.DescribeTrailsInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.DescribeTrailsOutput, error)
	GetTrailStatus(ctx context.Context, params *cloudtrail.GetTrailStatusInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.GetTrailStatusOutput, error)
}

type service struct {
	client CloudTrailClientAPI
	region string
}

// Service reads the trails of one region.
type Service interface {
	// ListTrails returns the trails owned by the region. A multi-region
	// trail is only returned by its home region.
	ListTrails(ctx context.Context) ([]model.Trail, error)
	IsLogging(ctx context.Context, trailARN string) (bool, error)
}
