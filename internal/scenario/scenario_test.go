package scenario_test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/torosent/crankbench/internal/config"
	"github.com/torosent/crankbench/internal/esclient"
	"github.com/torosent/crankbench/internal/runner"
	"github.com/torosent/crankbench/internal/scenario"
)

// fakeES is an in-memory stand-in for the handful of endpoints the
// scenarios use.
type fakeES struct {
	mu          sync.Mutex
	indices     map[string]map[string]string
	nextID      int
	failCreate  bool
	missingDocs bool
	bareWrites  bool
	queries     []string
}

func newFakeES() *fakeES {
	return &fakeES{indices: map[string]map[string]string{}}
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/":
		fmt.Fprint(w, `{"name":"node-1","cluster_name":"fake","version":{"number":"8.15.0"}}`)

	case len(parts) == 1 && r.Method == http.MethodPut:
		if f.failCreate {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if _, ok := f.indices[parts[0]]; ok {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"type":"resource_already_exists_exception"}}`)
			return
		}
		f.indices[parts[0]] = map[string]string{}
		fmt.Fprint(w, `{"acknowledged":true}`)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		if _, ok := f.indices[parts[0]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.indices, parts[0])
		fmt.Fprint(w, `{"acknowledged":true}`)

	case len(parts) == 3 && parts[1] == "_doc":
		f.handleDoc(w, r, parts[0], parts[2], body)

	case len(parts) == 2 && parts[1] == "_bulk":
		f.handleBulk(w, parts[0], body)

	case len(parts) == 2 && parts[1] == "_refresh":
		fmt.Fprint(w, `{"_shards":{"failed":0}}`)

	case len(parts) == 2 && parts[1] == "_search":
		term := gjson.GetBytes(body, "query.match.body").String()
		f.queries = append(f.queries, term)
		hits := 0
		for _, doc := range f.indices[parts[0]] {
			if strings.Contains(gjson.Get(doc, "body").String(), term) {
				hits++
			}
		}
		fmt.Fprintf(w, `{"timed_out":false,"hits":{"total":{"value":%d,"relation":"eq"}}}`, hits)

	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (f *fakeES) handleDoc(w http.ResponseWriter, r *http.Request, index, id string, body []byte) {
	docs, ok := f.indices[index]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPut:
		result, status := "created", http.StatusCreated
		if _, exists := docs[id]; exists {
			result, status = "updated", http.StatusOK
		}
		docs[id] = string(body)
		w.WriteHeader(status)
		if f.bareWrites {
			fmt.Fprintf(w, `{"result":%q}`, result)
			return
		}
		fmt.Fprintf(w, `{"_index":%q,"_id":%q,"result":%q}`, index, id, result)
	case http.MethodGet:
		doc, found := docs[id]
		if !found || f.missingDocs {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"found":false}`)
			return
		}
		fmt.Fprintf(w, `{"_id":%q,"found":true,"_source":%s}`, id, doc)
	}
}

func (f *fakeES) handleBulk(w http.ResponseWriter, index string, body []byte) {
	docs, ok := f.indices[index]
	if !ok {
		docs = map[string]string{}
		f.indices[index] = docs
	}
	var items []string
	sc := bufio.NewScanner(bytes.NewReader(body))
	action := true
	for sc.Scan() {
		if action {
			action = false
			continue
		}
		action = true
		f.nextID++
		docs[fmt.Sprint(f.nextID)] = sc.Text()
		items = append(items, `{"index":{"status":201}}`)
	}
	fmt.Fprintf(w, `{"errors":false,"items":[%s]}`, strings.Join(items, ","))
}

func newCluster(t *testing.T, es *fakeES) *esclient.Client {
	t.Helper()
	srv := httptest.NewServer(es)
	t.Cleanup(srv.Close)
	client, err := esclient.New(esclient.Options{URL: srv.URL, Cluster: "target"})
	require.NoError(t, err)
	return client
}

func runScenario(t *testing.T, cl scenario.Cluster, entry config.ScenarioEntry) (*runner.Runner, error) {
	t.Helper()
	sc, err := scenario.Lookup(entry.Name)
	require.NoError(t, err)
	r := runner.New(runner.Options{})
	if err := sc.Configure(r, cl, entry); err != nil {
		return r, err
	}
	_, err = r.Run(context.Background())
	return r, err
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"bulk", "get", "index", "info", "ping", "search"}, scenario.Names())
	for _, sc := range scenario.All() {
		assert.NotEmpty(t, sc.Category, sc.Name)
		assert.NotEmpty(t, sc.Description, sc.Name)
	}
}

func TestLookup(t *testing.T) {
	sc, err := scenario.Lookup(" PING ")
	require.NoError(t, err)
	assert.Equal(t, "ping", sc.Name)
	assert.Equal(t, scenario.CategoryCore, sc.Category)

	_, err = scenario.Lookup("delete-everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available")
}

func TestScenariosSucceedAgainstCluster(t *testing.T) {
	tests := []config.ScenarioEntry{
		{Name: "ping"},
		{Name: "info"},
		{Name: "get"},
		{Name: "index"},
		{Name: "bulk", Params: map[string]string{"docs": "10"}},
		{Name: "search", Params: map[string]string{"docs": "20", "query": "shard"}},
	}
	for _, entry := range tests {
		t.Run(entry.Name, func(t *testing.T) {
			entry.Warmups = 2
			entry.Repetitions = 5
			r, err := runScenario(t, newCluster(t, newFakeES()), entry)
			require.NoError(t, err)

			samples := r.Samples()
			require.Len(t, samples, 5)
			for i, s := range samples {
				assert.Equal(t, runner.OutcomeSuccess, s.Outcome, "repetition %d", i)
			}
			assert.Equal(t, entry.Name, r.Action())
		})
	}
}

func TestActionOverride(t *testing.T) {
	r, err := runScenario(t, newCluster(t, newFakeES()), config.ScenarioEntry{Name: "ping", Action: "ping-root", Repetitions: 1})
	require.NoError(t, err)
	assert.Equal(t, "ping-root", r.Action())
}

func TestIndexScenarioWritesEveryRepetition(t *testing.T) {
	es := newFakeES()
	_, err := runScenario(t, newCluster(t, es), config.ScenarioEntry{Name: "index", Repetitions: 7, Params: map[string]string{"index": "custom"}})
	require.NoError(t, err)
	assert.Len(t, es.indices["custom"], 7)
}

func TestGetMissingDocumentIsFailure(t *testing.T) {
	es := newFakeES()
	es.missingDocs = true
	r, err := runScenario(t, newCluster(t, es), config.ScenarioEntry{Name: "get", Repetitions: 3})
	require.NoError(t, err)
	for _, s := range r.Samples() {
		assert.Equal(t, runner.OutcomeFailure, s.Outcome)
	}
}

func TestSetupFailureSurfacesAsSetupError(t *testing.T) {
	es := newFakeES()
	es.failCreate = true
	_, err := runScenario(t, newCluster(t, es), config.ScenarioEntry{Name: "index", Repetitions: 3})
	var serr *runner.SetupError
	require.True(t, errors.As(err, &serr), "got %v", err)
	var httpErr *esclient.HTTPError
	assert.True(t, errors.As(err, &httpErr))
}

func TestInvalidParams(t *testing.T) {
	for _, entry := range []config.ScenarioEntry{
		{Name: "bulk", Params: map[string]string{"docs": "many"}},
		{Name: "search", Params: map[string]string{"docs": "0"}},
	} {
		_, err := runScenario(t, newCluster(t, newFakeES()), entry)
		assert.Error(t, err, entry.Name)
	}
}

func TestConfigureRequiresCluster(t *testing.T) {
	sc, err := scenario.Lookup("ping")
	require.NoError(t, err)
	assert.Error(t, sc.Configure(runner.New(runner.Options{}), nil, config.ScenarioEntry{Name: "ping"}))
}

func TestGetSetupRequiresDocumentLocation(t *testing.T) {
	es := newFakeES()
	es.bareWrites = true
	_, err := runScenario(t, newCluster(t, es), config.ScenarioEntry{Name: "get", Repetitions: 1})
	var serr *runner.SetupError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Contains(t, err.Error(), "doc_index")
}

func TestGetReadsSeededDocumentId(t *testing.T) {
	es := newFakeES()
	r, err := runScenario(t, newCluster(t, es), config.ScenarioEntry{
		Name:        "get",
		Repetitions: 2,
		Params:      map[string]string{"index": "lookup", "id": "doc-7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-7", r.Vars().GetAll()["doc_id"])
	assert.Equal(t, "lookup", r.Vars().GetAll()["doc_index"])
	assert.Contains(t, es.indices["lookup"], "doc-7")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexScenarioUsesDocsFile(t *testing.T) {
	es := newFakeES()
	path := writeFile(t, "docs.json", `[{"title":"first","body":"shard"},{"title":"second","body":"replica"}]`)

	_, err := runScenario(t, newCluster(t, es), config.ScenarioEntry{
		Name:        "index",
		Repetitions: 5,
		Params:      map[string]string{"index": "fed", "docs_file": path},
	})
	require.NoError(t, err)

	docs := es.indices["fed"]
	require.Len(t, docs, 5)
	assert.Equal(t, "first", gjson.Get(docs["0"], "title").String())
	assert.Equal(t, "second", gjson.Get(docs["1"], "title").String())
	assert.Equal(t, "first", gjson.Get(docs["4"], "title").String())
}

func TestBulkScenarioUsesDocsFile(t *testing.T) {
	es := newFakeES()
	path := writeFile(t, "docs.ndjson", "{\"body\":\"a\"}\n{\"body\":\"b\"}\n")

	r, err := runScenario(t, newCluster(t, es), config.ScenarioEntry{
		Name:        "bulk",
		Repetitions: 2,
		Params:      map[string]string{"index": "fed", "docs": "3", "docs_file": path},
	})
	require.NoError(t, err)
	for _, s := range r.Samples() {
		assert.Equal(t, runner.OutcomeSuccess, s.Outcome)
	}
	assert.Len(t, es.indices["fed"], 6)
}

func TestSearchScenarioFeedsQueries(t *testing.T) {
	es := newFakeES()
	path := writeFile(t, "terms.csv", "term\nshard\nreplica\n")

	_, err := runScenario(t, newCluster(t, es), config.ScenarioEntry{
		Name:        "search",
		Warmups:     1,
		Repetitions: 3,
		Params:      map[string]string{"docs": "20", "query": "{{term}}", "query_file": path},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"shard", "replica", "shard", "replica"}, es.queries)
}

func TestMissingDataFiles(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	for _, entry := range []config.ScenarioEntry{
		{Name: "index", Params: map[string]string{"docs_file": missing}},
		{Name: "bulk", Params: map[string]string{"docs_file": missing}},
		{Name: "search", Params: map[string]string{"query_file": missing}},
	} {
		_, err := runScenario(t, newCluster(t, newFakeES()), entry)
		require.Error(t, err, entry.Name)
		assert.Contains(t, err.Error(), "param", entry.Name)
	}
}
