package controls

import (
	"context"
	"fmt"
	"strings"

	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/config"
	"github.com/thirukguru/aws-cloud-wellness/shared/awserr"
)

const noS3LoggingReason = "Cloudtrail not configured to log to S3."

// eachTrail calls fn for every trail of the snapshot in region order.
func eachTrail(in Inputs, fn func(region string, trail model.Trail)) {
	for _, region := range in.Snapshot.TrailRegions() {
		for _, trail := range in.Snapshot.TrailsByRegion[region] {
			fn(region, trail)
		}
	}
}

// 2.1
func cloudTrailAllRegions(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryLogging, 1, "Ensure CloudTrail is enabled in all regions", true)
	f.unreadable(in.Snapshot, in.Snapshot.TrailErrors, "trails")
	logging := false
	for _, region := range in.Snapshot.TrailRegions() {
		for _, trail := range in.Snapshot.TrailsByRegion[region] {
			if !trail.IsMultiRegionTrail {
				continue
			}
			ok, err := in.Regional.CloudTrail(region).IsLogging(ctx, trail.TrailARN)
			if err != nil {
				return model.ControlResult{}, err
			}
			if ok {
				logging = true
				break
			}
		}
		if logging {
			break
		}
	}
	if !logging {
		f.add("No enabled multi region trails found", accountOffender, cloudTrailConfigLink)
	}
	return f.result(), nil
}

// 2.2
func cloudTrailValidation(_ context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryLogging, 2, "Ensure CloudTrail log file validation is enabled", true)
	f.unreadable(in.Snapshot, in.Snapshot.TrailErrors, "trails")
	eachTrail(in, func(_ string, trail model.Trail) {
		if !trail.LogFileValidationEnabled {
			f.add("CloudTrails without log file validation discovered", trail.TrailARN, trail.ConsoleLink())
		}
	})
	return f.result(), nil
}

// 2.3
func cloudTrailBucketNotPublic(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryLogging, 3, "Ensure the S3 bucket CloudTrail logs to is not publicly accessible", true)
	f.unreadable(in.Snapshot, in.Snapshot.TrailErrors, "trails")
	var trails []model.Trail
	eachTrail(in, func(_ string, trail model.Trail) { trails = append(trails, trail) })

	for _, trail := range trails {
		bucket := trail.S3BucketName
		if bucket == "" {
			f.add(noS3LoggingReason, trail.TrailARN+":NoS3Logging", trail.ConsoleLink())
			continue
		}
		// The bucket is read from the trail's region to avoid a redirect.
		public, err := in.Regional.S3(trail.ARNRegion()).PublicACL(ctx, bucket)
		switch awserr.Classify(err) {
		case awserr.KindNone:
			if public {
				f.add("Publicly accessible CloudTrail bucket discovered.", trail.TrailARN+":PublicBucket", bucketLink(bucket, "permissions"))
			}
		case awserr.KindAccessDenied:
			f.add("Missing permissions to verify bucket ACL.", trail.TrailARN+":AccessDenied", bucketLink(bucket, "permissions"))
		case awserr.KindNotFound:
			f.add("Trail bucket doesn't exist.", trail.TrailARN+":NoBucket", trail.ConsoleLink())
		default:
			f.add("Cannot verify bucket ACL.", trail.TrailARN+":CannotVerify", trail.ConsoleLink())
		}
	}
	return f.result(), nil
}

// 2.4
func cloudTrailCloudWatchLogs(_ context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryLogging, 4, "Ensure CloudTrail trails are integrated with CloudWatch Logs", true)
	f.unreadable(in.Snapshot, in.Snapshot.TrailErrors, "trails")
	eachTrail(in, func(_ string, trail model.Trail) {
		if !strings.Contains(trail.CloudWatchLogsLogGroupArn, "arn:aws:logs") {
			f.add("CloudTrails without CloudWatch Logs discovered", trail.TrailARN, trail.ConsoleLink())
		}
	})
	return f.result(), nil
}

// 2.5
func configAllRegions(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryLogging, 5, "Ensure AWS Config is enabled in all regions", true)
	const reason = "Config not enabled in all regions, not capturing all/global events or delivery channel errors"

	states, err := eachRegion(ctx, in, func(ctx context.Context, region string) (config.RecorderState, error) {
		return in.Regional.Config(region).RecorderState(ctx)
	})
	if err != nil {
		return model.ControlResult{}, err
	}

	globalRecorded := false
	for i, state := range states {
		region := in.Snapshot.Regions[i]
		link := configLink(region)
		if !state.Recording {
			f.add(reason, region+":NotRecording", link)
		}
		if state.Present && !state.AllSupported {
			f.add(reason, region+":NotAllEvents", link)
		}
		if state.IncludeGlobalResourceTypes {
			globalRecorded = true
		}
		if state.HistoryDelivery != "" && state.HistoryDelivery != "SUCCESS" {
			f.add(reason, region+":S3orSNSDelivery", link)
		}
		if state.StreamDelivery != "" && state.StreamDelivery != "SUCCESS" && state.StreamDelivery != "NOT_APPLICABLE" {
			f.add(reason, region+":SNSDelivery", link)
		}
	}
	if !globalRecorded {
		f.add(reason, "Global:NotRecording", globalConfigLink)
	}
	return f.result(), nil
}

// 2.6
func cloudTrailBucketLogging(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryLogging, 6, "Ensure S3 bucket access logging is enabled on the CloudTrail S3 bucket", true)
	f.unreadable(in.Snapshot, in.Snapshot.TrailErrors, "trails")
	var trails []model.Trail
	eachTrail(in, func(_ string, trail model.Trail) { trails = append(trails, trail) })

	for _, trail := range trails {
		bucket := trail.S3BucketName
		if bucket == "" {
			f.add(noS3LoggingReason, trail.TrailARN, trail.ConsoleLink())
			continue
		}
		enabled, err := in.Regional.S3(trail.ARNRegion()).LoggingEnabled(ctx, bucket)
		if awserr.IsNotFound(err) {
			f.add(noS3LoggingReason, trail.TrailARN, trail.ConsoleLink())
			continue
		}
		if err != nil {
			return model.ControlResult{}, fmt.Errorf("bucket %s: %w", bucket, err)
		}
		if !enabled {
			f.add("CloudTrail S3 bucket without logging discovered", "Trail:"+trail.TrailARN, bucketLink(bucket, "properties"))
		}
	}
	return f.result(), nil
}

// 2.7
func cloudTrailEncryption(_ context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryLogging, 7, "Ensure CloudTrail logs are encrypted at rest using KMS CMKs", true)
	f.unreadable(in.Snapshot, in.Snapshot.TrailErrors, "trails")
	eachTrail(in, func(_ string, trail model.Trail) {
		if trail.KmsKeyID == "" {
			f.add("CloudTrail not using KMS CMK for encryption discovered", "Trail:"+trail.TrailARN, trail.ConsoleLink())
		}
	})
	return f.result(), nil
}

// 2.8
func kmsKeyRotation(ctx context.Context, in Inputs) (model.ControlResult, error) {
	f := newFindings(model.CategoryLogging, 8, "Ensure rotation for customer created CMKs is enabled", true)
	perRegion, err := eachRegion(ctx, in, func(ctx context.Context, region string) ([]string, error) {
		return in.Regional.Config(region).UnrotatedCustomerKeys(ctx)
	})
	if err != nil {
		return model.ControlResult{}, err
	}
	for _, arns := range perRegion {
		for _, arn := range arns {
			f.add("KMS CMK rotation not enabled", "Key:"+arn, "https://console.aws.amazon.com/iam/home#/encryptionKeys/"+arn)
		}
	}
	return f.result(), nil
}
