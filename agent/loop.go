package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"reflexion_agent/generator"
	"reflexion_agent/metrics"
	"reflexion_agent/search"
)

// DefaultMaxIterations bounds dispatch rounds, the initial one included.
const DefaultMaxIterations = 3

// ErrEmptyQuestion is returned for blank input.
var ErrEmptyQuestion = errors.New("question is empty")

var tracer = otel.Tracer("reflexion.agent")

// Generator produces raw structured output for a shape.
type Generator interface {
	Generate(ctx context.Context, mode generator.Shape, pc generator.PromptContext) (generator.RawResponse, error)
}

// Dispatcher runs one batch of search queries.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv search.Invocation) []search.Result
}

// Loop sequences draft, dispatch and revise until the dispatch bound is hit.
type Loop struct {
	gen           Generator
	disp          Dispatcher
	maxIterations int
	now           func() time.Time
	logger        *zap.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxIterations sets the number of dispatch rounds per run.
func WithMaxIterations(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

func WithLogger(lg *zap.Logger) Option {
	return func(l *Loop) {
		if lg != nil {
			l.logger = lg
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

func New(gen Generator, disp Dispatcher, opts ...Option) (*Loop, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if disp == nil {
		return nil, errors.New("dispatcher is required")
	}
	l := &Loop{
		gen:           gen,
		disp:          disp,
		maxIterations: DefaultMaxIterations,
		now:           time.Now,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Outcome is the detailed result of a run.
type Outcome struct {
	RunID         string
	Answer        string
	Final         generator.Revision
	DispatchCount int
	Drifts        int
	State         *State
}

type step int

const (
	stepDrafting step = iota
	stepDispatching
	stepRevising
	stepDone
)

func (s step) String() string {
	return [...]string{"drafting", "dispatching", "revising", "done"}[s]
}

// Run answers question and returns the final revision's answer.
func (l *Loop) Run(ctx context.Context, question string) (string, error) {
	out, err := l.Research(ctx, question)
	if err != nil {
		return "", err
	}
	return out.Answer, nil
}

// Research runs the loop and keeps the full record of the run.
func (l *Loop) Research(ctx context.Context, question string) (Outcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Outcome{}, ErrEmptyQuestion
	}
	runID := uuid.NewString()
	log := l.logger.With(zap.String("run_id", runID))

	ctx, span := tracer.Start(ctx, "reflexion.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("max_iterations", l.maxIterations),
	))
	defer span.End()

	start := time.Now()
	out, err := l.research(ctx, log, question)
	out.RunID = runID
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		log.Error("run failed", zap.Error(err), zap.Int("dispatch_count", out.DispatchCount))
		return out, err
	}
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("dispatch_count", out.DispatchCount))
	log.Info("run done",
		zap.Int("dispatch_count", out.DispatchCount),
		zap.Int("drifts", out.Drifts),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (l *Loop) research(ctx context.Context, log *zap.Logger, question string) (Outcome, error) {
	st := newState(question, l.now())
	out := Outcome{State: st}
	var latest generator.Parsed

	for cur := stepDrafting; cur != stepDone; {
		if err := ctx.Err(); err != nil {
			out.DispatchCount = st.DispatchCount
			return out, err
		}
		log.Debug("transition", zap.Stringer("state", cur), zap.Int("dispatch_count", st.DispatchCount))

		switch cur {
		case stepDrafting, stepRevising:
			shape := generator.ShapeDraft
			if cur == stepRevising {
				shape = generator.ShapeRevision
			}
			p, err := l.generate(ctx, log, shape, st)
			if err != nil {
				out.DispatchCount = st.DispatchCount
				return out, err
			}
			if p.Drift != nil {
				out.Drifts++
			}
			st.appendCall(p, l.now())
			latest = p

			cur = stepDispatching
			if shape == generator.ShapeRevision && st.DispatchCount >= l.maxIterations {
				cur = stepDone
			}

		case stepDispatching:
			inv := search.Invocation{Phase: st.nextPhase(), Queries: queriesFor(latest, question)}
			results := l.disp.Dispatch(ctx, inv)
			if err := st.recordDispatch(inv, results, latest.Call.ID, l.now()); err != nil {
				out.DispatchCount = st.DispatchCount
				return out, err
			}
			metrics.DispatchRounds.WithLabelValues(string(inv.Phase)).Inc()
			log.Debug("dispatch done",
				zap.String("phase", string(inv.Phase)),
				zap.Strings("queries", inv.Queries),
				zap.Int("dispatch_count", st.DispatchCount),
			)
			cur = stepRevising
		}
	}

	out.DispatchCount = st.DispatchCount
	out.Final = *latest.Revision
	out.Answer = out.Final.Answer
	return out, nil
}

func (l *Loop) generate(ctx context.Context, log *zap.Logger, shape generator.Shape, st *State) (generator.Parsed, error) {
	ctx, span := tracer.Start(ctx, "reflexion.generate", trace.WithAttributes(attribute.String("shape", shape.String())))
	defer span.End()

	start := time.Now()
	raw, err := l.gen.Generate(ctx, shape, generator.PromptContext{
		Question: st.Question,
		History:  append([]generator.Message(nil), st.History...),
	})
	metrics.GenerationDuration.WithLabelValues(shape.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return generator.Parsed{}, err
	}
	p, err := generator.Parse(raw, shape)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return generator.Parsed{}, fmt.Errorf("parse %s: %w", shape, err)
	}
	if p.Drift != nil {
		metrics.SchemaDrift.WithLabelValues(shape.String()).Inc()
		log.Warn("schema drift recovered", zap.Stringer("shape", shape), zap.Error(p.Drift))
	}
	return p, nil
}

// queriesFor falls back to the question when a drifted call left no queries.
func queriesFor(p generator.Parsed, question string) []string {
	if q := p.SearchQueries(); len(q) > 0 {
		out := make([]string, len(q))
		copy(out, q)
		return out
	}
	return []string{question}
}
