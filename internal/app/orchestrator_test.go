package app

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

type fakeGenerator struct {
	calls   atomic.Int32
	reply   string
	err     error
	blockCh chan struct{} // when set, Generate blocks until closed
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	if g.blockCh != nil {
		<-g.blockCh
	}
	return g.reply, g.err
}

type fakeSaver struct {
	calls atomic.Int32
	err   error

	lastPrompt   string
	lastResponse string
}

func (s *fakeSaver) Save(ctx context.Context, prompt, response string) error {
	s.calls.Add(1)
	s.lastPrompt = prompt
	s.lastResponse = response
	return s.err
}

func newTestOrchestrator(gen *fakeGenerator, saver *fakeSaver, maxTurns int) (*Orchestrator, *Transcript, *Identity) {
	tr := NewTranscript()
	id := NewIdentity()
	id.Set("user-1")
	o := NewOrchestrator(tr, gen, saver, id, maxTurns, NewLogger(io.Discard))
	return o, tr, id
}

func TestSubmitSuccessAppendsPairAndPersists(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	saver := &fakeSaver{}
	o, tr, _ := newTestOrchestrator(gen, saver, 20)

	outcome, err := o.Submit(context.Background(), "  hello  ")
	if err != nil || outcome != OutcomeCompleted {
		t.Fatalf("Submit = (%v, %v), want (completed, nil)", outcome, err)
	}
	o.Drain()

	msgs := tr.Snapshot()
	if len(msgs) != 2 {
		t.Fatalf("transcript len = %d, want 2", len(msgs))
	}
	if !msgs[0].IsUser || msgs[0].Text != "hello" {
		t.Fatalf("first message = %+v, want trimmed user prompt", msgs[0])
	}
	if msgs[1].IsUser || msgs[1].Text != "hi" {
		t.Fatalf("second message = %+v, want bot reply", msgs[1])
	}
	if saver.calls.Load() != 1 || saver.lastPrompt != "hello" || saver.lastResponse != "hi" {
		t.Fatalf("persistence call = (%d, %q, %q), want one call with the exchange", saver.calls.Load(), saver.lastPrompt, saver.lastResponse)
	}
	if o.Loading() {
		t.Fatalf("loading flag still set after Submit")
	}
}

func TestSubmitPersistFailureLeavesTranscriptIntact(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	saver := &fakeSaver{err: errors.New("store down")}
	o, tr, _ := newTestOrchestrator(gen, saver, 20)

	outcome, err := o.Submit(context.Background(), "hello")
	if err != nil || outcome != OutcomeCompleted {
		t.Fatalf("Submit = (%v, %v), want completed despite persist failure", outcome, err)
	}
	o.Drain()

	if got := tr.Len(); got != 2 {
		t.Fatalf("transcript len = %d after persist failure, want 2", got)
	}
}

func TestSubmitGenerationFailureKeepsUserTurn(t *testing.T) {
	gen := &fakeGenerator{err: ErrNoCandidates}
	saver := &fakeSaver{}
	o, tr, _ := newTestOrchestrator(gen, saver, 20)

	outcome, err := o.Submit(context.Background(), "hello")
	if outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", outcome)
	}
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("err = %v, want ErrNoCandidates", err)
	}

	msgs := tr.Snapshot()
	if len(msgs) != 1 || !msgs[0].IsUser {
		t.Fatalf("transcript = %+v, want only the unanswered user turn", msgs)
	}
	if saver.calls.Load() != 0 {
		t.Fatalf("persistence was called on a failed exchange")
	}
	if o.Loading() {
		t.Fatalf("loading flag still set after failure")
	}
}

func TestSubmitEmptyPromptIsNoOp(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\t\n"} {
		gen := &fakeGenerator{reply: "hi"}
		o, tr, _ := newTestOrchestrator(gen, &fakeSaver{}, 20)

		outcome, err := o.Submit(context.Background(), prompt)
		if err != nil || outcome != OutcomeEmptyPrompt {
			t.Fatalf("Submit(%q) = (%v, %v), want (empty-prompt, nil)", prompt, outcome, err)
		}
		if tr.Len() != 0 {
			t.Fatalf("empty prompt mutated the transcript")
		}
		if gen.calls.Load() != 0 {
			t.Fatalf("empty prompt issued a network call")
		}
	}
}

func TestSubmitUnauthenticatedIsRefused(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	o, tr, id := newTestOrchestrator(gen, &fakeSaver{}, 20)
	id.Clear()

	outcome, err := o.Submit(context.Background(), "hello")
	if err != nil || outcome != OutcomeUnauthenticated {
		t.Fatalf("Submit = (%v, %v), want (unauthenticated, nil)", outcome, err)
	}
	if tr.Len() != 0 || gen.calls.Load() != 0 {
		t.Fatalf("unauthenticated submit had side effects")
	}
}

func TestSubmitLimitReached(t *testing.T) {
	gen := &fakeGenerator{reply: "hi"}
	o, tr, _ := newTestOrchestrator(gen, &fakeSaver{}, 2)

	for i := 0; i < 2; i++ {
		tr.Append(NewUserMessage("q"))
		tr.Append(NewBotMessage("a"))
	}
	before := tr.Snapshot()

	outcome, err := o.Submit(context.Background(), "one more")
	if err != nil || outcome != OutcomeLimitReached {
		t.Fatalf("Submit = (%v, %v), want (limit-reached, nil)", outcome, err)
	}
	if !messagesEqual(tr.Snapshot(), before) {
		t.Fatalf("limit rejection mutated the transcript")
	}
	if gen.calls.Load() != 0 {
		t.Fatalf("limit rejection issued a network call")
	}
}

func TestSubmitRejectsOverlappingCalls(t *testing.T) {
	block := make(chan struct{})
	gen := &fakeGenerator{reply: "hi", blockCh: block}
	o, _, _ := newTestOrchestrator(gen, &fakeSaver{}, 20)

	firstDone := make(chan Outcome, 1)
	go func() {
		outcome, _ := o.Submit(context.Background(), "first")
		firstDone <- outcome
	}()

	// Wait for the first submit to take the loading flag.
	deadline := time.After(2 * time.Second)
	for !o.Loading() {
		select {
		case <-deadline:
			t.Fatalf("first submit never became pending")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	outcome, err := o.Submit(context.Background(), "second")
	if err != nil || outcome != OutcomeBusy {
		t.Fatalf("overlapping Submit = (%v, %v), want (busy, nil)", outcome, err)
	}

	close(block)
	if got := <-firstDone; got != OutcomeCompleted {
		t.Fatalf("first submit = %v, want completed", got)
	}
}

func TestSubmitTranscriptParity(t *testing.T) {
	// After every accepted-and-answered submission the transcript holds an
	// even number of messages and never exceeds twice the turn cap.
	gen := &fakeGenerator{reply: "r"}
	o, tr, _ := newTestOrchestrator(gen, &fakeSaver{}, 3)

	for i := 0; i < 5; i++ {
		outcome, _ := o.Submit(context.Background(), "q")
		if tr.Len()%2 != 0 {
			t.Fatalf("transcript length %d odd after completed submit", tr.Len())
		}
		if tr.Len() > 6 {
			t.Fatalf("transcript length %d exceeds 2x turn cap", tr.Len())
		}
		if i >= 3 && outcome != OutcomeLimitReached {
			t.Fatalf("submission %d = %v, want limit-reached", i, outcome)
		}
	}
	o.Drain()
}
