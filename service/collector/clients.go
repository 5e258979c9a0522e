package collector

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/thirukguru/aws-cloud-wellness/service/aws_config"
	"github.com/thirukguru/aws-cloud-wellness/service/cloudtrail"
	"github.com/thirukguru/aws-cloud-wellness/service/config"
	"github.com/thirukguru/aws-cloud-wellness/service/events"
	"github.com/thirukguru/aws-cloud-wellness/service/guardduty"
	"github.com/thirukguru/aws-cloud-wellness/service/logging"
	"github.com/thirukguru/aws-cloud-wellness/service/s3security"
	"github.com/thirukguru/aws-cloud-wellness/service/vpc"
)

// NewClients creates a regional client cache around cfg.
func NewClients(cfg aws.Config) *Clients {
	return &Clients{cfg: cfg, cache: make(map[string]*regionalClients)}
}

func (c *Clients) region(region string) *regionalClients {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rc, ok := c.cache[region]; ok {
		return rc
	}
	cfg := awsconfig.ForRegion(c.cfg, region)
	rc := &regionalClients{
		cloudTrail: cloudtrail.NewService(cfg),
		vpc:        vpc.NewService(cfg),
		config:     config.NewService(cfg),
		logging:    logging.NewService(cfg),
		guardDuty:  guardduty.NewService(cfg),
		s3:         s3security.NewService(cfg),
		events:     events.NewService(cfg),
	}
	c.cache[region] = rc
	return rc
}

func (c *Clients) CloudTrail(region string) cloudtrail.Service { return c.region(region).cloudTrail }

func (c *Clients) VPC(region string) vpc.Service { return c.region(region).vpc }

func (c *Clients) Config(region string) config.Service { return c.region(region).config }

func (c *Clients) Logging(region string) logging.Service { return c.region(region).logging }

func (c *Clients) GuardDuty(region string) guardduty.Service { return c.region(region).guardDuty }

func (c *Clients) S3(region string) s3security.Service { return c.region(region).s3 }

func (c *Clients) Events(region string) events.Service { return c.region(region).events }
