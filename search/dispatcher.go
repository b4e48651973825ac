package search

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reflexion_agent/metrics"
)

const (
	defaultMaxResults  = 5
	defaultConcurrency = 3
	defaultTimeout     = 15 * time.Second
)

// ErrNoResults marks a query that completed without any snippet.
var ErrNoResults = errors.New("search: no results")

var tracer = otel.Tracer("reflexion.search")

// Dispatcher runs every query of an Invocation against a Provider.
type Dispatcher struct {
	provider    Provider
	maxResults  int
	concurrency int
	timeout     time.Duration
	logger      *zap.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMaxResults caps the snippets kept per query.
func WithMaxResults(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxResults = n
		}
	}
}

// WithConcurrency limits in-flight queries. Values below 1 mean unlimited.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) { d.concurrency = n }
}

// WithQueryTimeout bounds each query. Zero disables the bound.
func WithQueryTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = t }
}

func WithLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func NewDispatcher(p Provider, opts ...DispatcherOption) (*Dispatcher, error) {
	if p == nil {
		return nil, errors.New("search provider is required")
	}
	d := &Dispatcher{
		provider:    p,
		maxResults:  defaultMaxResults,
		concurrency: defaultConcurrency,
		timeout:     defaultTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch returns one Result per query, position for position. Queries run
// concurrently; a failing query yields an empty Result and never stops the
// others.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) []Result {
	ctx, span := tracer.Start(ctx, "search.dispatch", trace.WithAttributes(
		attribute.String("phase", string(inv.Phase)),
		attribute.Int("queries", len(inv.Queries)),
	))
	defer span.End()

	results := make([]Result, len(inv.Queries))
	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i, q := range inv.Queries {
		g.Go(func() error {
			results[i] = d.query(ctx, inv.Phase, q)
			return nil // per-query failures live on the Result
		})
	}
	_ = g.Wait()
	return results
}

func (d *Dispatcher) query(ctx context.Context, phase Phase, q string) Result {
	ctx, span := tracer.Start(ctx, "search.query", trace.WithAttributes(attribute.String("query", q)))
	defer span.End()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	res := Result{Query: q, Phase: phase, Snippets: []Snippet{}}
	snippets, err := d.provider.Search(ctx, q)
	switch {
	case err != nil:
		res.Err = err
	case len(snippets) == 0:
		res.Err = ErrNoResults
	default:
		if len(snippets) > d.maxResults {
			snippets = snippets[:d.maxResults]
		}
		res.Snippets = snippets
	}

	outcome := "ok"
	if res.Err != nil {
		outcome = "failed"
		if errors.Is(res.Err, ErrNoResults) {
			outcome = "empty"
		}
		span.SetStatus(codes.Error, res.Err.Error())
		d.logger.Warn("search query failed",
			zap.String("phase", string(phase)),
			zap.String("query", q),
			zap.Error(res.Err),
		)
	}
	metrics.SearchQueries.WithLabelValues(string(phase), outcome).Inc()
	return res
}
