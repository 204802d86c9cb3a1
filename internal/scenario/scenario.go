package scenario

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/torosent/crankbench/internal/config"
	"github.com/torosent/crankbench/internal/esclient"
	"github.com/torosent/crankbench/internal/runner"
)

const (
	CategoryCore   = "core"
	CategorySearch = "search"
	CategoryIngest = "ingest"
)

// Cluster is the subset of the target client scenarios depend on.
type Cluster interface {
	Perform(ctx context.Context, method, path string, body []byte, contentType string) (*esclient.Response, error)
	Ping(ctx context.Context) error
	Info(ctx context.Context) (esclient.Info, error)
	Bulk(ctx context.Context, index string, body []byte) ([]byte, error)
}

// Scenario is a named benchmark that configures a Runner.
type Scenario struct {
	Name        string
	Category    string
	Description string
	configure   func(r *runner.Runner, cl Cluster, e config.ScenarioEntry, p params) error
}

// Configure registers the setup and measure operations of the scenario on r.
func (s Scenario) Configure(r *runner.Runner, cl Cluster, e config.ScenarioEntry) error {
	if cl == nil {
		return fmt.Errorf("scenario %s: cluster is required", s.Name)
	}
	if e.Action == "" {
		e.Action = s.Name
	}
	return s.configure(r, cl, e, params(e.Params))
}

var registry = map[string]Scenario{}

func register(s Scenario) {
	if _, dup := registry[s.Name]; dup {
		panic("scenario: duplicate registration of " + s.Name)
	}
	registry[s.Name] = s
}

// Lookup returns the scenario registered under name.
func Lookup(name string) (Scenario, error) {
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names returns the registered scenario names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered scenario sorted by name.
func All() []Scenario {
	names := Names()
	out := make([]Scenario, len(names))
	for i, name := range names {
		out[i] = registry[name]
	}
	return out
}

type params map[string]string

func (p params) get(key, def string) string {
	if v := strings.TrimSpace(p[key]); v != "" {
		return v
	}
	return def
}

func (p params) positive(key string, def int) (int, error) {
	raw := strings.TrimSpace(p[key])
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("param %s must be >= 1", key)
	}
	return n, nil
}
