package config

import (
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultIndexPrefix = "metrics-intake"
	DefaultBatchSize   = 1000
	DefaultClientName  = "crankbench"
)

type Config struct {
	Target        ClusterConfig   `mapstructure:"target"`
	Report        ReportConfig    `mapstructure:"report"`
	TargetService ServiceConfig   `mapstructure:"target_service"`
	Client        ClientConfig    `mapstructure:"client"`
	BuildID       string          `mapstructure:"build_id"`
	Environment   string          `mapstructure:"environment"`
	Category      string          `mapstructure:"category"`
	Warmups       int             `mapstructure:"warmups"`
	Repetitions   int             `mapstructure:"repetitions"`
	DryRun        bool            `mapstructure:"dry_run"`
	JSONOutput    bool            `mapstructure:"json_output"`
	LockFile      string          `mapstructure:"lock_file"`
	Log           LogConfig       `mapstructure:"log"`
	Tracing       TracingConfig   `mapstructure:"tracing"`
	PlanFile      string          `mapstructure:"plan"`
	Thresholds    []string        `mapstructure:"thresholds"`
	ConfigFile    string          `mapstructure:"-"`
	Plan          *Plan           `mapstructure:"-"`
	Scenarios     []ScenarioEntry `mapstructure:"-"`
}

// ClusterConfig describes how to reach an Elasticsearch-compatible cluster.
type ClusterConfig struct {
	URL      string        `mapstructure:"url"`
	APIKey   string        `mapstructure:"api_key"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
	Rate     int           `mapstructure:"rate"` // requests per second, 0 means unlimited
}

// ReportConfig describes the reporting store.
type ReportConfig struct {
	ClusterConfig `mapstructure:",squash"`
	BatchSize     int    `mapstructure:"batch_size"`
	IndexPrefix   string `mapstructure:"index_prefix"`
}

// ServiceConfig identifies the system under measurement.
type ServiceConfig struct {
	Type      string `mapstructure:"type"`
	Name      string `mapstructure:"name"`
	Version   string `mapstructure:"version"`
	GitBranch string `mapstructure:"git_branch"`
	GitCommit string `mapstructure:"git_commit"`
	OSFamily  string `mapstructure:"os_family"`
}

// ClientConfig identifies the benchmarking client in reported documents.
type ClientConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Branch  string `mapstructure:"branch"`
	Commit  string `mapstructure:"commit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"`
}

// Enabled reports whether tracing was requested through config or environment.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether trace headers are sent to the clusters.
// Propagation follows Enabled unless explicitly overridden.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	issues = append(issues, validateClusterConfig("target", c.Target, true)...)
	issues = append(issues, validateClusterConfig("report", c.Report.ClusterConfig, !c.DryRun)...)

	if c.Report.BatchSize < 1 {
		issues = append(issues, "report.batch_size must be >= 1")
	}
	if strings.TrimSpace(c.Report.IndexPrefix) == "" {
		issues = append(issues, "report.index_prefix is required")
	}
	if c.Warmups < 0 {
		issues = append(issues, "warmups must be >= 0")
	}
	if c.Repetitions < 0 {
		issues = append(issues, "repetitions must be >= 0")
	}
	if strings.TrimSpace(c.BuildID) == "" {
		issues = append(issues, "build_id is required")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("log format %q is not supported", c.Log.Format))
	}
	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
			issues = append(issues, fmt.Sprintf("log level %q is not supported", c.Log.Level))
		}
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing.sample_rate must be between 0.0 and 1.0")
	}

	for idx, sc := range c.Scenarios {
		if strings.TrimSpace(sc.Name) == "" {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: name is required", idx))
		}
		if sc.Warmups < 0 || sc.Repetitions < 0 {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: warmups and repetitions must be >= 0", idx))
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateClusterConfig(name string, c ClusterConfig, required bool) []string {
	var issues []string
	raw := strings.TrimSpace(c.URL)
	if raw == "" {
		if required {
			issues = append(issues, fmt.Sprintf("%s.url is required (use --help for usage information)", name))
		}
	} else if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, fmt.Sprintf("%s.url %q must be an http(s) URL", name, redactURL(raw)))
	}
	if c.Timeout < 0 {
		issues = append(issues, fmt.Sprintf("%s.timeout must be >= 0", name))
	}
	if c.Retries < 0 {
		issues = append(issues, fmt.Sprintf("%s.retries must be >= 0", name))
	}
	if c.Rate < 0 {
		issues = append(issues, fmt.Sprintf("%s.rate must be >= 0", name))
	}
	if c.APIKey != "" && (c.Username != "" || c.Password != "") {
		issues = append(issues, fmt.Sprintf("%s: api_key and username/password are mutually exclusive", name))
	}
	return issues
}

// redactURL hides credentials embedded in a URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

// TargetDescriptor returns the opaque target description attached to every
// reported document.
func (c Config) TargetDescriptor() map[string]interface{} {
	service := map[string]interface{}{
		"type":    c.TargetService.Type,
		"name":    c.TargetService.Name,
		"version": c.TargetService.Version,
	}
	if c.TargetService.GitBranch != "" || c.TargetService.GitCommit != "" {
		service["git"] = map[string]interface{}{
			"branch": c.TargetService.GitBranch,
			"commit": c.TargetService.GitCommit,
		}
	}
	return map[string]interface{}{
		"service": service,
		"os": map[string]interface{}{
			"family": c.TargetService.OSFamily,
		},
	}
}

// RuntimeVersion is the Go runtime reported for the benchmarking client.
func RuntimeVersion() string {
	return strings.TrimPrefix(runtime.Version(), "go")
}
