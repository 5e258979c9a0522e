package flag

import "github.com/thirukguru/aws-cloud-wellness/model"

type service struct {
	lookupEnv func(string) (string, bool)
}

// Service is the interface for CLI flag service.
type Service interface {
	GetParsedFlags() (model.Flags, error)
}

// fileConfig is the optional YAML configuration file.
type fileConfig struct {
	Profile           string `yaml:"profile"`
	Region            string `yaml:"region"`
	OutputBucket      string `yaml:"output_bucket"`
	ReportNameDetails *bool  `yaml:"report_name_details"`
	ReportTTL         string `yaml:"report_ttl"`
	ObfuscateAccount  *bool  `yaml:"obfuscate_account"`
	SNSTopicARN       string `yaml:"sns_topic_arn"`
	JSONOnly          *bool  `yaml:"json_only"`
	Store             *bool  `yaml:"store"`
	DBPath            string `yaml:"db_path"`
	Concurrency       int    `yaml:"concurrency"`
	CallTimeout       string `yaml:"call_timeout"`
	RootUseDays       *int   `yaml:"root_use_days"`
}
