package app

import (
	"context"
	"io"
)

// Application wires the conversational core together: config, logger,
// identity signal, transcript, archive, the remote clients, and the
// orchestrator and session manager on top of them.
type Application struct {
	Config   Config
	Logger   *Logger
	Identity *Identity

	Transcript *Transcript
	Archive    *Archive

	Gemini *GeminiClient
	Store  *ExchangeStore

	Orchestrator *Orchestrator
	Sessions     *SessionManager

	loader *HistoryLoader
}

func NewApplication(cfg Config, logOut io.Writer) *Application {
	logger := NewLogger(logOut)
	identity := NewIdentity()
	transcript := NewTranscript()
	archive := NewArchive(cfg.ArchivePath, logger)

	gemini := NewGeminiClient(cfg.APIKey, cfg.GenerateURL)
	store := NewExchangeStore(cfg.APIKey, cfg.HistoryURL, cfg.PersistURL)

	return &Application{
		Config:       cfg,
		Logger:       logger,
		Identity:     identity,
		Transcript:   transcript,
		Archive:      archive,
		Gemini:       gemini,
		Store:        store,
		Orchestrator: NewOrchestrator(transcript, gemini, store, identity, cfg.MaxMessagesPerSession, logger),
		Sessions:     NewSessionManager(transcript, archive, logger),
		loader:       NewHistoryLoader(store, logger),
	}
}

// Login establishes the identity and seeds the transcript from the remote
// history store, once per presence window. Safe to call on re-renders; the
// loader no-ops after the first fetch.
func (a *Application) Login(ctx context.Context, user string) {
	a.Identity.Set(user)
	a.loader.Seed(ctx, a.Transcript)
}

// Logout archives the conversation in progress, drops the identity, and
// re-arms the history loader for the next login.
func (a *Application) Logout() {
	a.Sessions.StartNewSession()
	a.Identity.Clear()
	a.loader.Reset()
}

// Submit forwards one prompt through the orchestrator.
func (a *Application) Submit(ctx context.Context, prompt string) (Outcome, error) {
	return a.Orchestrator.Submit(ctx, prompt)
}

// NewSession archives the current transcript and clears it.
func (a *Application) NewSession() (Session, bool) {
	return a.Sessions.StartNewSession()
}

// Close waits for in-flight persistence calls before shutdown.
func (a *Application) Close() {
	a.Orchestrator.Drain()
}
