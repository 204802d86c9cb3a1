package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/crankbench/internal/runner"
	"github.com/torosent/crankbench/internal/tracing"
)

const (
	DefaultBatchSize   = 1000
	DefaultIndexPrefix = "metrics-intake"
)

// Transport submits one NDJSON bulk body to an index and returns the raw
// response body.
type Transport interface {
	Bulk(ctx context.Context, index string, body []byte) ([]byte, error)
}

// Options configure a Reporter.
type Options struct {
	Transport   Transport
	Client      string // client identity for labels and tags
	IndexPrefix string
	BatchSize   int
	Now         func() time.Time // fixes the index month; time.Now when nil
	Tracer      trace.Tracer
	Logger      *zerolog.Logger
}

// Reporter stores samples as telemetry documents through the bulk API.
// It implements runner.Reporter.
type Reporter struct {
	transport Transport
	client    string
	index     string
	batchSize int
	tracer    trace.Tracer
	logger    zerolog.Logger
}

var _ runner.Reporter = (*Reporter)(nil)

// New creates a Reporter. The target index is derived from the current
// month once, here, and used for the lifetime of the Reporter.
func New(opt Options) (*Reporter, error) {
	if opt.Transport == nil {
		return nil, fmt.Errorf("report: transport is required")
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = DefaultBatchSize
	}
	if opt.IndexPrefix == "" {
		opt.IndexPrefix = DefaultIndexPrefix
	}
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}
	tracer := opt.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("crankbench")
	}
	logger := log.Logger
	if opt.Logger != nil {
		logger = *opt.Logger
	}
	return &Reporter{
		transport: opt.Transport,
		client:    opt.Client,
		index:     IndexName(opt.IndexPrefix, now()),
		batchSize: opt.BatchSize,
		tracer:    tracer,
		logger:    logger,
	}, nil
}

// IndexName returns the monthly index for t, e.g. metrics-intake-2024-05.
func IndexName(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format("2006-01")
}

// Index returns the index documents are written to.
func (r *Reporter) Index() string { return r.index }

// Report submits samples in batches, in order. It stops at the first batch
// that fails to transmit or is rejected, returning *ReportError for
// rejections.
func (r *Reporter) Report(ctx context.Context, meta runner.Metadata, samples []runner.Sample) error {
	for batch, start := 0, 0; start < len(samples); batch, start = batch+1, start+r.batchSize {
		end := start + r.batchSize
		if end > len(samples) {
			end = len(samples)
		}
		if err := r.submit(ctx, batch, meta, samples[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reporter) submit(ctx context.Context, batch int, meta runner.Metadata, samples []runner.Sample) error {
	ctx, span := r.tracer.Start(ctx, "report.batch",
		trace.WithAttributes(
			attribute.String("report.index", r.index),
			attribute.Int("report.batch", batch),
			attribute.Int("report.batch_size", len(samples)),
		),
	)

	body, err := r.encode(meta, samples)
	if err != nil {
		tracing.EndSpan(span, err)
		return err
	}

	r.logger.Debug().
		Str("index", r.index).
		Int("batch", batch).
		Int("documents", len(samples)).
		Msg("submitting benchmark results")

	resp, err := r.transport.Bulk(ctx, r.index, body)
	if err != nil {
		err = fmt.Errorf("bulk request for batch %d: %w", batch, err)
		tracing.EndSpan(span, err)
		return err
	}

	if err := checkResponse(batch, resp); err != nil {
		tracing.EndSpan(span, err)
		return err
	}
	tracing.EndSpan(span, nil)
	return nil
}

var actionLine = []byte(`{"index":{}}` + "\n")

func (r *Reporter) encode(meta runner.Metadata, samples []runner.Sample) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, s := range samples {
		buf.Write(actionLine)
		// Encode terminates each document with a newline.
		if err := enc.Encode(NewDocument(r.client, meta, s)); err != nil {
			return nil, fmt.Errorf("encode document %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// checkResponse validates a bulk response: the top-level errors flag and
// every item status must indicate success.
func checkResponse(batch int, body []byte) error {
	if !gjson.ValidBytes(body) {
		return &ReportError{Batch: batch, Errors: true}
	}
	res := gjson.ParseBytes(body)
	rerr := &ReportError{Batch: batch, Errors: res.Get("errors").Bool()}

	res.Get("items").ForEach(func(key, item gjson.Result) bool {
		// each item is keyed by its action, e.g. {"index": {...}}
		item.ForEach(func(_, result gjson.Result) bool {
			status := int(result.Get("status").Int())
			if status > 201 {
				rerr.Failed = append(rerr.Failed, ItemFailure{
					Position: int(key.Int()),
					Status:   status,
					Type:     result.Get("error.type").String(),
					Reason:   result.Get("error.reason").String(),
				})
			}
			return true
		})
		return true
	})

	if rerr.Errors || len(rerr.Failed) > 0 {
		return rerr
	}
	return nil
}
