// Package esclient provides the HTTP transport used to talk to
// Elasticsearch-compatible clusters, both the benchmark target and the
// reporting store.
//
// The esclient package handles request execution with support for:
//   - API key, basic and bearer authentication
//   - Configurable timeouts and connection pooling
//   - Retries with exponential backoff for 429 and 5xx responses
//   - Request pacing with a token bucket limiter
//   - OpenTelemetry client spans and W3C trace propagation
//
// # Client
//
// Use [New] to create a client for one cluster:
//
//	client, err := esclient.New(esclient.Options{
//		URL:     "https://localhost:9200",
//		APIKey:  apiKey,
//		Timeout: 30 * time.Second,
//		Retries: 3,
//	})
//	if err != nil {
//		return err
//	}
//	info, err := client.Info(ctx)
//
// Any response outside the 2xx range is returned as an [*HTTPError] once
// retries are exhausted. Context cancellation is never retried.
//
// # Bulk
//
// [Client.Bulk] posts an NDJSON body to the bulk endpoint of an index and
// returns the raw response body. The caller validates per-item results.
package esclient
