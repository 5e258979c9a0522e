package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/thirukguru/aws-cloud-wellness/model"
	awsconfig "github.com/thirukguru/aws-cloud-wellness/service/aws_config"
)

const (
	reportPrefix  = "aws_cloud_wellness_report"
	contentType   = "text/html"
	subjectPrefix = "AWS Cloud Wellness report - "
	// SNS rejects subjects longer than this.
	maxSubjectLen = 100
)

// NewService creates a publisher from an AWS configuration.
func NewService(cfg aws.Config, opts Options) Service {
	client := s3.NewFromConfig(cfg)
	return NewServiceWithClients(client, s3.NewPresignClient(client), func(region string) SNSClientAPI {
		return sns.NewFromConfig(awsconfig.ForRegion(cfg, region))
	}, opts)
}

// NewServiceWithClients creates a publisher around the given clients.
func NewServiceWithClients(s3Client S3ClientAPI, presign PresignClientAPI, snsClient func(region string) SNSClientAPI, opts Options) Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &service{s3Client: s3Client, presign: presign, snsClient: snsClient, opts: opts}
}

// ReportName returns the object name of a report.
func ReportName(account string, now time.Time, detailed bool) string {
	if !detailed {
		return reportPrefix + ".html"
	}
	return fmt.Sprintf("%s_%s_%s.html", reportPrefix, account, now.UTC().Format("20060102_1504"))
}

func (s *service) Publish(ctx context.Context, html, account string) (string, error) {
	if s.opts.Bucket == "" {
		return "", fmt.Errorf("%w: no output bucket configured", model.ErrPublish)
	}
	now := s.opts.Clock()
	key := ReportName(account, now, s.opts.Detailed)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(html),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to upload s3://%s/%s: %v", model.ErrPublish, s.opts.Bucket, key, err)
	}

	signed, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.opts.TTL))
	if err != nil {
		return "", fmt.Errorf("%w: failed to presign report url: %v", model.ErrPublish, err)
	}

	if s.opts.TopicARN != "" {
		if err := s.notify(ctx, signed.URL, now); err != nil {
			return signed.URL, err
		}
	}
	return signed.URL, nil
}

func (s *service) notify(ctx context.Context, url string, now time.Time) error {
	topic, err := arn.Parse(s.opts.TopicARN)
	if err != nil {
		return fmt.Errorf("%w: invalid topic arn %q: %v", model.ErrPublish, s.opts.TopicARN, err)
	}
	message, err := json.Marshal(map[string]string{"default": url})
	if err != nil {
		return fmt.Errorf("%w: failed to encode notification: %v", model.ErrPublish, err)
	}

	subject := subjectPrefix + now.UTC().Format("2006-01-02 15:04:05")
	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}
	_, err = s.snsClient(topic.Region).Publish(ctx, &sns.PublishInput{
		TopicArn:         aws.String(s.opts.TopicARN),
		Subject:          aws.String(subject),
		Message:          aws.String(string(message)),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to notify %s: %v", model.ErrPublish, s.opts.TopicARN, err)
	}
	return nil
}
