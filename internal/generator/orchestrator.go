package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lmojica26/womenhealthytips.com/internal/llm"
)

// FallbackSuffix marks the model of content produced by the secondary provider.
const FallbackSuffix = " (fallback)"

var (
	// ErrUnknownProvider is returned for a provider name that is not recognised.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrNoProvider is returned when the requested chain has no configured backend.
	ErrNoProvider = errors.New("no text provider configured")
)

// Attempt is one step of a fallback plan.
type Attempt struct {
	Provider llm.Provider
	Fallback bool
}

// Plan is the ordered list of providers to try.
type Plan []Attempt

// Orchestrator builds fallback plans over a primary and a secondary provider.
// Either may be nil when not configured.
type Orchestrator struct {
	primary   llm.Provider
	secondary llm.Provider
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(primary, secondary llm.Provider, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{primary: primary, secondary: secondary, logger: logger}
}

// Plan resolves the caller's provider choice. The default (empty or
// "openai") tries the primary and then the secondary; an explicit choice of
// the secondary never falls back.
func (o *Orchestrator) Plan(requested string) (Plan, error) {
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "", llm.ProviderOpenAI:
		var plan Plan
		if o.primary != nil {
			plan = append(plan, Attempt{Provider: o.primary})
		}
		if o.secondary != nil {
			plan = append(plan, Attempt{Provider: o.secondary, Fallback: true})
		}
		if len(plan) == 0 {
			return nil, ErrNoProvider
		}
		return plan, nil
	case llm.ProviderAnthropic, "claude":
		if o.secondary == nil {
			return nil, ErrNoProvider
		}
		return Plan{{Provider: o.secondary}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, requested)
	}
}

// Result is the outcome of a plan run. On failure Model names the last
// provider model attempted ("unknown" when nothing ran).
type Result[T any] struct {
	Value    T
	Provider string
	Model    string
	Fallback bool
	Tokens   int
	Attempts int
}

type state int

const (
	stateAttempt state = iota
	stateSuccess
	stateNext
	stateExhausted
)

func (s state) String() string {
	switch s {
	case stateAttempt:
		return "ATTEMPT"
	case stateSuccess:
		return "SUCCESS"
	case stateNext:
		return "NEXT"
	case stateExhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// transition decides what follows attempt i of n.
func transition(ctx context.Context, err error, i, n int) state {
	switch {
	case err == nil:
		return stateSuccess
	case errors.Is(err, ErrEmptyTopic):
		return stateExhausted
	case ctx.Err() != nil:
		return stateExhausted
	case i+1 < n:
		return stateNext
	default:
		return stateExhausted
	}
}

// CallFunc runs one generation against a provider.
type CallFunc[T any] func(ctx context.Context, p llm.Provider) (T, llm.Completion, error)

// Run evaluates plan with call. Each provider is called at most once.
func Run[T any](ctx context.Context, plan Plan, logger *slog.Logger, call CallFunc[T]) (Result[T], error) {
	res := Result[T]{Model: "unknown"}
	if len(plan) == 0 {
		return res, ErrNoProvider
	}

	var (
		i       int
		lastErr error
		st      = stateAttempt
	)
	for {
		switch st {
		case stateAttempt:
			a := plan[i]
			value, c, err := call(ctx, a.Provider)
			res.Attempts++
			res.Provider = a.Provider.Name()
			res.Model = modelName(a, c)
			res.Fallback = a.Fallback

			st = transition(ctx, err, i, len(plan))
			if err != nil {
				lastErr = err
				logger.Warn("generation attempt failed",
					"provider", a.Provider.Name(),
					"attempt", res.Attempts,
					"next", st.String(),
					"error", err,
				)
				continue
			}
			res.Value = value
			res.Tokens = c.TotalTokens()

		case stateNext:
			i++
			st = stateAttempt

		case stateSuccess:
			return res, nil

		case stateExhausted:
			return res, lastErr
		}
	}
}

func modelName(a Attempt, c llm.Completion) string {
	model := c.Model
	if model == "" {
		model = a.Provider.Model()
	}
	if a.Fallback {
		model += FallbackSuffix
	}
	return model
}
