// Package collector gathers the account snapshot every control reads from.
package collector

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/thirukguru/aws-cloud-wellness/model"
	"github.com/thirukguru/aws-cloud-wellness/service/cloudtrail"
	"github.com/thirukguru/aws-cloud-wellness/service/config"
	"github.com/thirukguru/aws-cloud-wellness/service/events"
	"github.com/thirukguru/aws-cloud-wellness/service/guardduty"
	"github.com/thirukguru/aws-cloud-wellness/service/iam"
	"github.com/thirukguru/aws-cloud-wellness/service/logging"
	"github.com/thirukguru/aws-cloud-wellness/service/s3security"
	awssts "github.com/thirukguru/aws-cloud-wellness/service/sts"
	"github.com/thirukguru/aws-cloud-wellness/service/vpc"
)

// RegionalReader builds the per-region readers the collector needs.
type RegionalReader interface {
	CloudTrail(region string) cloudtrail.Service
	Events(region string) events.Service
}

// Options tunes a collection run.
type Options struct {
	// HomeRegion is the region regions are discovered from.
	HomeRegion string
	// Concurrency bounds the region fan-out.
	Concurrency int
	// ObfuscateAccount replaces the account id with model.ObfuscatedAccountID.
	ObfuscateAccount bool
	Clock            func() time.Time
}

type service struct {
	iam      iam.Service
	sts      awssts.Service
	home     vpc.Service
	regional RegionalReader
	opts     Options
}

// Service is the interface for snapshot collection.
type Service interface {
	// Collect builds the snapshot. A credential report that never
	// completes is fatal; every other read failure is returned wrapped
	// with the region it came from.
	Collect(ctx context.Context) (*model.Snapshot, error)
}

// regionalClients is the set of readers built for one region.
type regionalClients struct {
	cloudTrail cloudtrail.Service
	vpc        vpc.Service
	config     config.Service
	logging    logging.Service
	guardDuty  guardduty.Service
	s3         s3security.Service
	events     events.Service
}

// Clients builds and caches regional readers from one base configuration.
// It is safe for concurrent use.
type Clients struct {
	cfg   aws.Config
	mu    sync.Mutex
	cache map[string]*regionalClients
}
