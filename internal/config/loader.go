package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envBindings maps configuration keys to the environment variables read for
// them, in order of preference. Every key is additionally readable as
// CRANKBENCH_<KEY> with dots replaced by underscores.
var envBindings = map[string][]string{
	"target.url":                {"ELASTICSEARCH_TARGET_URL"},
	"target.api_key":            {"ELASTICSEARCH_TARGET_API_KEY"},
	"target.username":           {"ELASTICSEARCH_TARGET_USERNAME"},
	"target.password":           {"ELASTICSEARCH_TARGET_PASSWORD"},
	"report.url":                {"ELASTICSEARCH_REPORT_URL"},
	"report.api_key":            {"ELASTICSEARCH_REPORT_API_KEY"},
	"report.username":           {"ELASTICSEARCH_REPORT_USERNAME"},
	"report.password":           {"ELASTICSEARCH_REPORT_PASSWORD"},
	"build_id":                  {"BUILD_ID"},
	"environment":               {"BENCHMARK_ENVIRONMENT", "CLIENT_BENCHMARK_ENVIRONMENT"},
	"category":                  {"BENCHMARK_CATEGORY"},
	"client.branch":             {"CLIENT_BRANCH"},
	"client.commit":             {"CLIENT_COMMIT"},
	"target_service.type":       {"TARGET_SERVICE_TYPE"},
	"target_service.name":       {"TARGET_SERVICE_NAME"},
	"target_service.version":    {"TARGET_SERVICE_VERSION"},
	"target_service.git_branch": {"TARGET_BUILD_BRANCH"},
	"target_service.git_commit": {"TARGET_BUILD_COMMIT"},
	"target_service.os_family":  {"TARGET_SERVICE_OS_FAMILY"},
	"tracing.service_name":      {"OTEL_SERVICE_NAME"},
}

// Loader handles loading configuration from files, environment variables
// and command-line flags, in increasing order of precedence.
type Loader struct {
	newBuildID func() string
}

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{newBuildID: NewBuildID}
}

// NewBuildID returns a fresh, lexically sortable build identifier.
func NewBuildID() string {
	return ulid.Make().String()
}

// Load resolves the configuration for the given flag set. The flag set must
// have been populated by RegisterFlags and already parsed.
func (l Loader) Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CRANKBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	if err := v.BindEnv("tracing.propagate"); err != nil {
		return nil, fmt.Errorf("bind env tracing.propagate: %w", err)
	}

	var configPath string
	if fs != nil {
		for name, key := range flagBindings {
			if flag := fs.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if flag := fs.Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = configPath

	cfg.Target.URL = strings.TrimSpace(cfg.Target.URL)
	cfg.Report.URL = strings.TrimSpace(cfg.Report.URL)
	cfg.BuildID = strings.TrimSpace(cfg.BuildID)
	if cfg.BuildID == "" && l.newBuildID != nil {
		cfg.BuildID = l.newBuildID()
	}
	if cfg.Client.Name == "" {
		cfg.Client.Name = DefaultClientName
	}
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if cfg.PlanFile = strings.TrimSpace(cfg.PlanFile); cfg.PlanFile != "" {
		plan, err := LoadPlan(cfg.PlanFile)
		if err != nil {
			return nil, err
		}
		cfg.Plan = plan
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target.timeout", 30*time.Second)
	v.SetDefault("report.timeout", 30*time.Second)
	v.SetDefault("report.retries", 3)
	v.SetDefault("report.batch_size", DefaultBatchSize)
	v.SetDefault("report.index_prefix", DefaultIndexPrefix)
	v.SetDefault("warmups", 10)
	v.SetDefault("repetitions", 1000)
	v.SetDefault("environment", "development")
	v.SetDefault("client.name", DefaultClientName)
	v.SetDefault("target_service.type", "elasticsearch")
	v.SetDefault("target_service.name", "elasticsearch")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("tracing.protocol", "grpc")
	v.SetDefault("tracing.sample_rate", 1.0)
}
