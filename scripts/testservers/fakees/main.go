// Command fakees serves an in-memory subset of the Elasticsearch REST API,
// enough to exercise every crankbench scenario and to receive bulk results
// when trying the tool locally:
//
//	go run ./scripts/testservers/fakees --port 9200
//	crankbench run --target-url http://localhost:9200 --report-url http://localhost:9200
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"
)

const version = "8.15.0"

func main() {
	port := pflag.Int("port", 9200, "Listening port")
	latency := pflag.Duration("latency", 0, "Artificial delay added to every request")
	pflag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           newStore(*latency),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", srv.Addr).Msg("fake cluster listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

type store struct {
	mu      sync.Mutex
	latency time.Duration
	indices map[string]map[string]json.RawMessage
	nextID  int
}

func newStore(latency time.Duration) *store {
	return &store{latency: latency, indices: map[string]map[string]json.RawMessage{}}
}

func (s *store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody("parse_exception", err.Error()))
		return
	}
	log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Int("bytes", len(body)).Msg("request")

	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/":
		respondJSON(w, http.StatusOK, map[string]any{
			"name":         "fakees-0",
			"cluster_name": "fakees",
			"version":      map[string]any{"number": version, "build_flavor": "default", "build_hash": "local"},
			"tagline":      "You Know, for Search",
		})
	case len(parts) == 1 && r.Method == http.MethodPut:
		s.createIndex(w, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.deleteIndex(w, parts[0])
	case len(parts) == 3 && parts[1] == "_doc":
		s.handleDoc(w, r.Method, parts[0], parts[2], body)
	case len(parts) == 2 && parts[1] == "_bulk":
		s.handleBulk(w, parts[0], body)
	case len(parts) == 2 && parts[1] == "_refresh":
		respondJSON(w, http.StatusOK, map[string]any{"_shards": map[string]int{"total": 1, "successful": 1, "failed": 0}})
	case len(parts) == 2 && parts[1] == "_search":
		s.handleSearch(w, parts[0], body)
	default:
		respondJSON(w, http.StatusBadRequest, errorBody("illegal_argument_exception", "unsupported request "+r.Method+" "+r.URL.Path))
	}
}

func (s *store) createIndex(w http.ResponseWriter, index string) {
	if _, ok := s.indices[index]; ok {
		respondJSON(w, http.StatusBadRequest, errorBody("resource_already_exists_exception", "index ["+index+"] already exists"))
		return
	}
	s.indices[index] = map[string]json.RawMessage{}
	respondJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "index": index})
}

func (s *store) deleteIndex(w http.ResponseWriter, index string) {
	if _, ok := s.indices[index]; !ok {
		respondJSON(w, http.StatusNotFound, errorBody("index_not_found_exception", "no such index ["+index+"]"))
		return
	}
	delete(s.indices, index)
	respondJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
}

func (s *store) handleDoc(w http.ResponseWriter, method, index, id string, body []byte) {
	docs, ok := s.indices[index]
	switch method {
	case http.MethodPut, http.MethodPost:
		if !json.Valid(body) {
			respondJSON(w, http.StatusBadRequest, errorBody("mapper_parsing_exception", "failed to parse"))
			return
		}
		if !ok {
			docs = map[string]json.RawMessage{}
			s.indices[index] = docs
		}
		result, status := "created", http.StatusCreated
		if _, exists := docs[id]; exists {
			result, status = "updated", http.StatusOK
		}
		docs[id] = append(json.RawMessage(nil), body...)
		respondJSON(w, status, map[string]any{"_index": index, "_id": id, "result": result})
	case http.MethodGet:
		doc, found := docs[id]
		if !found {
			respondJSON(w, http.StatusNotFound, map[string]any{"_index": index, "_id": id, "found": false})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"_index": index, "_id": id, "found": true, "_source": doc})
	default:
		respondJSON(w, http.StatusMethodNotAllowed, errorBody("illegal_argument_exception", "method not allowed"))
	}
}

func (s *store) handleBulk(w http.ResponseWriter, index string, body []byte) {
	start := time.Now()
	var items []map[string]any
	failed := false

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		action := gjson.ParseBytes(scanner.Bytes())
		if !action.Get("index").Exists() && !action.Get("create").Exists() {
			continue
		}
		target := index
		if name := action.Get("*._index").String(); name != "" {
			target = name
		}
		if !scanner.Scan() {
			break
		}
		doc := scanner.Bytes()
		if !json.Valid(doc) {
			failed = true
			items = append(items, map[string]any{"index": map[string]any{
				"_index": target, "status": http.StatusBadRequest,
				"error": map[string]any{"type": "mapper_parsing_exception", "reason": "failed to parse"},
			}})
			continue
		}
		docs, ok := s.indices[target]
		if !ok {
			docs = map[string]json.RawMessage{}
			s.indices[target] = docs
		}
		s.nextID++
		id := strconv.Itoa(s.nextID)
		docs[id] = append(json.RawMessage(nil), doc...)
		items = append(items, map[string]any{"index": map[string]any{"_index": target, "_id": id, "status": http.StatusCreated, "result": "created"}})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"took":   time.Since(start).Milliseconds(),
		"errors": failed,
		"items":  items,
	})
}

func (s *store) handleSearch(w http.ResponseWriter, index string, body []byte) {
	docs, ok := s.indices[index]
	if !ok {
		respondJSON(w, http.StatusNotFound, errorBody("index_not_found_exception", "no such index ["+index+"]"))
		return
	}
	term := strings.ToLower(gjson.GetBytes(body, "query.match.body").String())
	hits := 0
	for _, doc := range docs {
		if term == "" || strings.Contains(strings.ToLower(gjson.GetBytes(doc, "body").String()), term) {
			hits++
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"took":      0,
		"timed_out": false,
		"hits":      map[string]any{"total": map[string]any{"value": hits, "relation": "eq"}},
	})
}

func errorBody(kind, reason string) map[string]any {
	return map[string]any{"error": map[string]any{"type": kind, "reason": reason}}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
