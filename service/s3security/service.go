// Package s3security reads the access control and logging settings of S3 buckets.
package s3security

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ClientAPI is the interface for the S3 client methods used by the service.
type S3ClientAPI interface {
	GetBucketAcl(ctx context.Context, params *s3.GetBucketAclInput, optFns ...func(*s3.Options)) (*s3.GetBucketAclOutput, error)
	GetBucketLogging(ctx context.Context, params *s3.GetBucketLoggingInput, optFns ...func(*s3.Options)) (*s3.GetBucketLoggingOutput, error)
}

// Grantee URIs that make a bucket readable outside the account.
var publicGranteeURIs = []string{
	"http://acs.amazonaws.com/groups/global/AllUsers",
	"http://acs.amazonaws.com/groups/global/AuthenticatedUsers",
}

type service struct {
	client S3ClientAPI
}

// Service is the interface for S3 bucket reads
type Service interface {
	// PublicACL reports whether the bucket ACL grants access to all users
	// or to any authenticated AWS user. Errors keep the API error so
	// awserr.Classify can tell AccessDenied and NoSuchBucket apart.
	PublicACL(ctx context.Context, bucket string) (bool, error)
	LoggingEnabled(ctx context.Context, bucket string) (bool, error)
}

// NewService creates a new S3 service
func NewService(cfg aws.Config) Service {
	return &service{
		client: s3.NewFromConfig(cfg),
	}
}

// NewServiceWithClient creates an S3 service around an existing client.
func NewServiceWithClient(client S3ClientAPI) Service {
	return &service{client: client}
}

func (s *service) PublicACL(ctx context.Context, bucket string) (bool, error) {
	acl, err := s.client.GetBucketAcl(ctx, &s3.GetBucketAclInput{Bucket: aws.String(bucket)})
	if err != nil {
		return false, fmt.Errorf("failed to get ACL of bucket %s: %w", bucket, err)
	}
	for _, grant := range acl.Grants {
		if grant.Grantee == nil {
			continue
		}
		uri := aws.ToString(grant.Grantee.URI)
		for _, public := range publicGranteeURIs {
			if strings.EqualFold(uri, public) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *service) LoggingEnabled(ctx context.Context, bucket string) (bool, error) {
	out, err := s.client.GetBucketLogging(ctx, &s3.GetBucketLoggingInput{Bucket: aws.String(bucket)})
	if err != nil {
		return false, fmt.Errorf("failed to get logging of bucket %s: %w", bucket, err)
	}
	return out.LoggingEnabled != nil, nil
}
