package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/torosent/crankbench/internal/config"
	"github.com/torosent/crankbench/internal/esclient"
	"github.com/torosent/crankbench/internal/extractor"
	"github.com/torosent/crankbench/internal/feeder"
	"github.com/torosent/crankbench/internal/runner"
)

func init() {
	register(Scenario{
		Name:        "ping",
		Category:    CategoryCore,
		Description: "HEAD request against the cluster root",
		configure:   configurePing,
	})
	register(Scenario{
		Name:        "info",
		Category:    CategoryCore,
		Description: "GET the cluster root and check the version",
		configure:   configureInfo,
	})
	register(Scenario{
		Name:        "get",
		Category:    CategoryCore,
		Description: "GET a single document by id",
		configure:   configureGet,
	})
	register(Scenario{
		Name:        "index",
		Category:    CategoryIngest,
		Description: "Index one document per repetition (param docs_file)",
		configure:   configureIndex,
	})
	register(Scenario{
		Name:        "bulk",
		Category:    CategoryIngest,
		Description: "Bulk index a fixed batch of documents per repetition (params docs, docs_file)",
		configure:   configureBulk,
	})
	register(Scenario{
		Name:        "search",
		Category:    CategorySearch,
		Description: "Match query against a seeded index (params docs, docs_file, query, query_file)",
		configure:   configureSearch,
	})
}

func configurePing(r *runner.Runner, cl Cluster, e config.ScenarioEntry, _ params) error {
	r.Measure(e.Action, e.Warmups, e.Repetitions, runner.Action(cl.Ping))
	return nil
}

func configureInfo(r *runner.Runner, cl Cluster, e config.ScenarioEntry, _ params) error {
	r.Measure(e.Action, e.Warmups, e.Repetitions, runner.Func(func(ctx context.Context) (bool, error) {
		info, err := cl.Info(ctx)
		if err != nil {
			return false, err
		}
		return info.Version != "", nil
	}))
	return nil
}

// seedRules capture where the seeded document landed.
var seedRules = []extractor.Rule{
	{Variable: "doc_index", JSONPath: "$._index"},
	{Variable: "doc_id", JSONPath: "$._id"},
}

func configureGet(r *runner.Runner, cl Cluster, e config.ScenarioEntry, p params) error {
	index := indexName(p, "get")
	r.Setup(runner.IndexedFunc(func(ctx context.Context, _ int, r *runner.Runner) (bool, error) {
		if err := recreateIndex(ctx, cl, index); err != nil {
			return false, err
		}
		id := p.get("id", "1")
		resp, err := cl.Perform(ctx, http.MethodPut, docPath(index, id)+"?refresh=true", encodeDoc(0), esclient.ContentTypeJSON)
		if err != nil {
			return false, fmt.Errorf("seed document: %w", err)
		}
		if err := extractor.Into(r.Vars(), resp.Body, seedRules, log.Logger); err != nil {
			return false, fmt.Errorf("seed document: %w", err)
		}
		return true, nil
	}))
	r.Measure(e.Action, e.Warmups, e.Repetitions, runner.IndexedFunc(func(ctx context.Context, _ int, r *runner.Runner) (bool, error) {
		index, err := r.Vars().MustGet("doc_index")
		if err != nil {
			return false, err
		}
		id, err := r.Vars().MustGet("doc_id")
		if err != nil {
			return false, err
		}
		resp, err := cl.Perform(ctx, http.MethodGet, docPath(index, id), nil, "")
		if err != nil {
			return rejected(err)
		}
		return gjson.GetBytes(resp.Body, "found").Bool(), nil
	}))
	return nil
}

func configureIndex(r *runner.Runner, cl Cluster, e config.ScenarioEntry, p params) error {
	index := indexName(p, "index")
	docs, err := documents(p)
	if err != nil {
		return err
	}
	r.Setup(runner.Action(func(ctx context.Context) error {
		return recreateIndex(ctx, cl, index)
	}))
	r.Measure(e.Action, e.Warmups, e.Repetitions, runner.IndexedFunc(func(ctx context.Context, i int, _ *runner.Runner) (bool, error) {
		doc, err := docs(ctx, i)
		if err != nil {
			return false, err
		}
		resp, err := cl.Perform(ctx, http.MethodPut, docPath(index, strconv.Itoa(i)), doc, esclient.ContentTypeJSON)
		if err != nil {
			return rejected(err)
		}
		switch gjson.GetBytes(resp.Body, "result").String() {
		case "created", "updated":
			return true, nil
		default:
			return false, nil
		}
	}))
	return nil
}

func configureBulk(r *runner.Runner, cl Cluster, e config.ScenarioEntry, p params) error {
	index := indexName(p, "bulk")
	n, err := p.positive("docs", 100)
	if err != nil {
		return err
	}
	docs, err := documents(p)
	if err != nil {
		return err
	}
	var body []byte
	r.Setup(runner.Action(func(ctx context.Context) error {
		b, err := bulkBody(ctx, docs, n)
		if err != nil {
			return fmt.Errorf("build bulk body: %w", err)
		}
		body = b
		return recreateIndex(ctx, cl, index)
	}))
	r.Measure(e.Action, e.Warmups, e.Repetitions, runner.Func(func(ctx context.Context) (bool, error) {
		resp, err := cl.Bulk(ctx, index, body)
		if err != nil {
			return rejected(err)
		}
		res := gjson.ParseBytes(resp)
		return !res.Get("errors").Bool() && int(res.Get("items.#").Int()) == n, nil
	}))
	return nil
}

func configureSearch(r *runner.Runner, cl Cluster, e config.ScenarioEntry, p params) error {
	index := indexName(p, "search")
	n, err := p.positive("docs", 1000)
	if err != nil {
		return err
	}
	docs, err := documents(p)
	if err != nil {
		return err
	}
	// With query_file, each repetition fills the {{field}} placeholders of
	// the query template from the next record.
	template := p.get("query", words[0])
	var terms feeder.Feeder
	if path := p.get("query_file", ""); path != "" {
		if terms, err = feeder.Open(path); err != nil {
			return fmt.Errorf("param query_file: %w", err)
		}
	}
	searchPath := "/" + url.PathEscape(index) + "/_search"

	r.Setup(runner.Action(func(ctx context.Context) error {
		if err := recreateIndex(ctx, cl, index); err != nil {
			return err
		}
		body, err := bulkBody(ctx, docs, n)
		if err != nil {
			return fmt.Errorf("build seed documents: %w", err)
		}
		resp, err := cl.Bulk(ctx, index, body)
		if err != nil {
			return fmt.Errorf("seed documents: %w", err)
		}
		if gjson.GetBytes(resp, "errors").Bool() {
			return fmt.Errorf("seed documents: bulk response reported errors")
		}
		return refresh(ctx, cl, index)
	}))
	r.Measure(e.Action, e.Warmups, e.Repetitions, runner.Func(func(ctx context.Context) (bool, error) {
		term := template
		if terms != nil {
			rec, err := terms.Next(ctx)
			if err != nil {
				return false, err
			}
			term = feeder.SubstitutePlaceholders(template, rec)
		}
		quoted, err := json.Marshal(term)
		if err != nil {
			return false, err
		}
		query := fmt.Sprintf(`{"query":{"match":{"body":%s}}}`, quoted)
		resp, err := cl.Perform(ctx, http.MethodPost, searchPath, []byte(query), esclient.ContentTypeJSON)
		if err != nil {
			return rejected(err)
		}
		res := gjson.ParseBytes(resp.Body)
		if res.Get("timed_out").Bool() {
			return false, nil
		}
		return res.Get("hits.total.value").Int() > 0, nil
	}))
	return nil
}
