package app

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Generator runs one prompt through the remote generation service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ExchangeSaver persists one completed exchange.
type ExchangeSaver interface {
	Save(ctx context.Context, prompt, response string) error
}

// Outcome classifies one Submit call. Only OutcomeFailed carries an error;
// the rejection outcomes are expected conditions, not failures.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeEmptyPrompt
	OutcomeUnauthenticated
	OutcomeLimitReached
	OutcomeBusy
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeEmptyPrompt:
		return "empty-prompt"
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeLimitReached:
		return "limit-reached"
	case OutcomeBusy:
		return "busy"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Orchestrator drives one request/response cycle against the generation
// service: validate, append the user turn, call out, append the reply, and
// fire the best-effort persistence call. It also owns the loading flag that
// gates the typing indicator and doubles as the one-in-flight guard.
type Orchestrator struct {
	transcript *Transcript
	generator  Generator
	saver      ExchangeSaver
	identity   *Identity
	log        *Logger

	// maxUserTurns caps user-authored turns per session, so the transcript
	// never grows past twice that in total messages.
	maxUserTurns int

	loading atomic.Bool
	persist sync.WaitGroup
}

func NewOrchestrator(transcript *Transcript, generator Generator, saver ExchangeSaver, identity *Identity, maxUserTurns int, log *Logger) *Orchestrator {
	if maxUserTurns <= 0 {
		maxUserTurns = 20
	}
	return &Orchestrator{
		transcript:   transcript,
		generator:    generator,
		saver:        saver,
		identity:     identity,
		log:          log,
		maxUserTurns: maxUserTurns,
	}
}

// Loading reports whether a submit is in flight.
func (o *Orchestrator) Loading() bool {
	return o.loading.Load()
}

// Submit runs one exchange. The returned error is non-nil only for
// OutcomeFailed; rejections return their outcome with a nil error and leave
// the transcript untouched.
//
// On failure the user turn stays in the transcript: the conversation shows
// the unanswered question. The loading flag is cleared on every path.
func (o *Orchestrator) Submit(ctx context.Context, prompt string) (Outcome, error) {
	if !o.identity.Present() {
		return OutcomeUnauthenticated, nil
	}
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return OutcomeEmptyPrompt, nil
	}

	// The loading flag is the mutual-exclusion signal: a second submit while
	// one is pending is rejected rather than raced.
	if !o.loading.CompareAndSwap(false, true) {
		return OutcomeBusy, nil
	}
	defer o.loading.Store(false)

	if o.transcript.UserTurns() >= o.maxUserTurns {
		return OutcomeLimitReached, nil
	}

	o.transcript.Append(NewUserMessage(trimmed))

	reply, err := o.generator.Generate(ctx, trimmed)
	if err != nil {
		o.log.Error("generation failed", map[string]interface{}{"error": err.Error()})
		return OutcomeFailed, err
	}

	o.transcript.Append(NewBotMessage(reply))

	// Fire and forget: persistence latency or failure never delays or rolls
	// back the reply already delivered to the user.
	o.persist.Add(1)
	go func(prompt, reply string) {
		defer o.persist.Done()
		if err := o.saver.Save(context.WithoutCancel(ctx), prompt, reply); err != nil {
			o.log.Warn("persist failed", map[string]interface{}{"error": err.Error()})
		}
	}(trimmed, reply)

	return OutcomeCompleted, nil
}

// Drain blocks until pending persistence calls finish. Used at shutdown and
// by tests.
func (o *Orchestrator) Drain() {
	o.persist.Wait()
}
