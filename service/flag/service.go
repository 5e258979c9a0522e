package flag

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/thirukguru/aws-cloud-wellness/model"
	"gopkg.in/yaml.v3"
)

const envPrefix = "AWS_CLOUD_WELLNESS_"

// maxReportTTL is the longest lifetime of a SigV4 presigned URL.
const maxReportTTL = 168 * time.Hour

// NewService creates a new flag service.
func NewService() Service {
	return &service{lookupEnv: os.LookupEnv}
}

// GetParsedFlags parses the command line and merges in environment and
// config file values. Precedence is flag, environment, file, default.
func (s *service) GetParsedFlags() (model.Flags, error) {
	fs := pflag.CommandLine

	profile := fs.StringP("profile", "p", "", "AWS profile to use")
	region := fs.StringP("region", "r", "", "AWS region used for global API calls")
	version := fs.BoolP("version", "v", false, "Show version information")
	configPath := fs.StringP("config", "c", "", "Path to YAML config file")
	eventPath := fs.String("config-event", "", "AWS Config rule event JSON file ('-' for stdin); enables compliance feedback")
	jsonOnly := fs.Bool("json-only", false, "Suppress all output except the JSON result")
	printJSON := fs.Bool("print-json", true, "Print the JSON result document")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	concurrency := fs.Int("concurrency", 4, "Maximum parallel region and control evaluations")
	callTimeout := fs.Duration("call-timeout", 30*time.Second, "Timeout for a single AWS API call")
	outputBucket := fs.StringP("output-bucket", "b", "", "S3 bucket for the HTML report (enables web report)")
	nameDetails := fs.Bool("report-name-details", true, "Embed account id and UTC timestamp in the report name")
	reportTTL := fs.Duration("report-ttl", maxReportTTL, "Lifetime of the presigned report URL")
	obfuscate := fs.Bool("obfuscate-account", false, "Mask the account number in the report")
	snsTopic := fs.String("sns-topic-arn", "", "SNS topic that receives the report URL")
	htmlFile := fs.String("html-file", "", "Also write the HTML report to this local path")
	store := fs.Bool("store", false, "Persist run results in the local SQLite history")
	dbPath := fs.String("db-path", "", "Custom SQLite database path (default ~/.aws-cloud-wellness/history.db)")
	rootUseDays := fs.Int("root-use-days", 0, "Days allowed since last use of the root account")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return model.Flags{}, err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile, _ = s.env("CONFIG")
	}
	file, err := loadFileConfig(cfgFile)
	if err != nil {
		return model.Flags{}, err
	}

	flags := model.Flags{
		Profile:     s.stringValue(fs, "profile", *profile, "PROFILE", file.Profile),
		Region:      s.stringValue(fs, "region", *region, "REGION", file.Region),
		Version:     *version,
		ConfigPath:  cfgFile,
		EventPath:   *eventPath,
		PrintJSON:   *printJSON,
		LogLevel:    s.stringValue(fs, "log-level", *logLevel, "LOG_LEVEL", ""),
		HTMLFile:    *htmlFile,
		SNSTopicARN: s.stringValue(fs, "sns-topic-arn", *snsTopic, "SNS_TOPIC_ARN", file.SNSTopicARN),
		DBPath:      s.stringValue(fs, "db-path", *dbPath, "DB_PATH", file.DBPath),

		OutputBucket: s.stringValue(fs, "output-bucket", *outputBucket, "OUTPUT_BUCKET", file.OutputBucket),
	}

	if flags.JSONOnly, err = s.boolValue(fs, "json-only", *jsonOnly, "JSON_ONLY", file.JSONOnly); err != nil {
		return model.Flags{}, err
	}
	if flags.ReportNameDetails, err = s.boolValue(fs, "report-name-details", *nameDetails, "REPORT_NAME_DETAILS", file.ReportNameDetails); err != nil {
		return model.Flags{}, err
	}
	if flags.ObfuscateAccount, err = s.boolValue(fs, "obfuscate-account", *obfuscate, "OBFUSCATE_ACCOUNT", file.ObfuscateAccount); err != nil {
		return model.Flags{}, err
	}
	if flags.Store, err = s.boolValue(fs, "store", *store, "STORE", file.Store); err != nil {
		return model.Flags{}, err
	}
	if flags.ReportTTL, err = s.durationValue(fs, "report-ttl", *reportTTL, "REPORT_TTL", file.ReportTTL); err != nil {
		return model.Flags{}, err
	}
	if flags.CallTimeout, err = s.durationValue(fs, "call-timeout", *callTimeout, "CALL_TIMEOUT", file.CallTimeout); err != nil {
		return model.Flags{}, err
	}

	var fileConcurrency *int
	if file.Concurrency > 0 {
		fileConcurrency = &file.Concurrency
	}
	if flags.Concurrency, err = s.intValue(fs, "concurrency", *concurrency, "CONCURRENCY", fileConcurrency); err != nil {
		return model.Flags{}, err
	}
	if flags.RootUseDays, err = s.intValue(fs, "root-use-days", *rootUseDays, "ROOT_USE_DAYS", file.RootUseDays); err != nil {
		return model.Flags{}, err
	}

	if err := validate(flags); err != nil {
		return model.Flags{}, err
	}

	return flags, nil
}

func validate(flags model.Flags) error {
	if flags.Concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1, got %d", flags.Concurrency)
	}
	if flags.ReportTTL <= 0 || flags.ReportTTL > maxReportTTL {
		return fmt.Errorf("--report-ttl must be between 1s and %s, got %s", maxReportTTL, flags.ReportTTL)
	}
	if flags.CallTimeout <= 0 {
		return fmt.Errorf("--call-timeout must be positive, got %s", flags.CallTimeout)
	}
	if flags.RootUseDays < 0 {
		return fmt.Errorf("--root-use-days must not be negative, got %d", flags.RootUseDays)
	}
	switch strings.ToLower(flags.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported --log-level %q", flags.LogLevel)
	}
	if flags.SNSTopicARN != "" && !strings.HasPrefix(flags.SNSTopicARN, "arn:") {
		return fmt.Errorf("--sns-topic-arn %q is not an ARN", flags.SNSTopicARN)
	}
	return nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (s *service) env(key string) (string, bool) {
	v, ok := s.lookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (s *service) stringValue(fs *pflag.FlagSet, name, flagVal, envKey, fileVal string) string {
	if fs.Changed(name) {
		return flagVal
	}
	if v, ok := s.env(envKey); ok {
		return v
	}
	if fileVal != "" {
		return fileVal
	}
	return flagVal
}

func (s *service) boolValue(fs *pflag.FlagSet, name string, flagVal bool, envKey string, fileVal *bool) (bool, error) {
	if fs.Changed(name) {
		return flagVal, nil
	}
	if v, ok := s.env(envKey); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("invalid %s%s: %w", envPrefix, envKey, err)
		}
		return b, nil
	}
	if fileVal != nil {
		return *fileVal, nil
	}
	return flagVal, nil
}

func (s *service) intValue(fs *pflag.FlagSet, name string, flagVal int, envKey string, fileVal *int) (int, error) {
	if fs.Changed(name) {
		return flagVal, nil
	}
	if v, ok := s.env(envKey); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s%s: %w", envPrefix, envKey, err)
		}
		return n, nil
	}
	if fileVal != nil {
		return *fileVal, nil
	}
	return flagVal, nil
}

func (s *service) durationValue(fs *pflag.FlagSet, name string, flagVal time.Duration, envKey, fileVal string) (time.Duration, error) {
	if fs.Changed(name) {
		return flagVal, nil
	}
	raw := fileVal
	source := "config file " + name
	if v, ok := s.env(envKey); ok {
		raw = v
		source = envPrefix + envKey
	}
	if raw == "" {
		return flagVal, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", source, err)
	}
	return d, nil
}
