package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/torosent/crankbench/internal/esclient"
	"github.com/torosent/crankbench/internal/feeder"
)

const indexSettings = `{"settings":{"number_of_shards":1,"number_of_replicas":0}}`

func indexName(p params, scenario string) string {
	return p.get("index", "crankbench-"+scenario)
}

func docPath(index, id string) string {
	return "/" + url.PathEscape(index) + "/_doc/" + url.PathEscape(id)
}

// recreateIndex drops index if present and creates it empty.
func recreateIndex(ctx context.Context, cl Cluster, index string) error {
	path := "/" + url.PathEscape(index)
	if _, err := cl.Perform(ctx, http.MethodDelete, path, nil, ""); err != nil && !isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("delete index %s: %w", index, err)
	}
	if _, err := cl.Perform(ctx, http.MethodPut, path, []byte(indexSettings), esclient.ContentTypeJSON); err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	return nil
}

func refresh(ctx context.Context, cl Cluster, index string) error {
	_, err := cl.Perform(ctx, http.MethodPost, "/"+url.PathEscape(index)+"/_refresh", nil, "")
	return err
}

func isStatus(err error, status int) bool {
	var httpErr *esclient.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == status
}

// rejected maps a 4xx response to an explicit failure; other errors stay faults.
func rejected(err error) (bool, error) {
	var httpErr *esclient.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
		return false, nil
	}
	return false, err
}

type sampleDoc struct {
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Tags    []string `json:"tags"`
	Counter int      `json:"counter"`
}

var words = []string{"cluster", "shard", "replica", "segment", "mapping", "analyzer", "query", "bucket"}

func newSampleDoc(i int) sampleDoc {
	w := words[i%len(words)]
	return sampleDoc{
		Title:   fmt.Sprintf("document %d about %s", i, w),
		Body:    strings.Repeat(w+" ", 1+i%5),
		Tags:    []string{"bench", w},
		Counter: i,
	}
}

func encodeDoc(i int) []byte {
	data, _ := json.Marshal(newSampleDoc(i))
	return data
}

// docSource yields the encoded document for repetition i.
type docSource func(ctx context.Context, i int) ([]byte, error)

// documents returns generated documents, or the records of param docs_file
// when it is set.
func documents(p params) (docSource, error) {
	path := p.get("docs_file", "")
	if path == "" {
		return func(_ context.Context, i int) ([]byte, error) {
			return encodeDoc(i), nil
		}, nil
	}
	f, err := feeder.Open(path)
	if err != nil {
		return nil, fmt.Errorf("param docs_file: %w", err)
	}
	return func(ctx context.Context, _ int) ([]byte, error) {
		rec, err := f.Next(ctx)
		if err != nil {
			return nil, err
		}
		return rec.JSON()
	}, nil
}

// bulkBody builds an NDJSON index request for n documents from src.
func bulkBody(ctx context.Context, src docSource, n int) ([]byte, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		doc, err := src(ctx, i)
		if err != nil {
			return nil, err
		}
		b.WriteString(`{"index":{}}` + "\n")
		b.Write(doc)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
