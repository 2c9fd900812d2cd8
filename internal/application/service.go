package application

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// Service is the entry point used by the command line. It wires the ports
// into the individual handlers.
type Service struct {
	ConfigLoader ConfigLoader
	EventLoader  EventLoader
	Parser       ReportParser
	Renderer     CommentRenderer
	LocalStore   ReportStore
	RemoteStores RemoteStoreFactory
	Platforms    PlatformFactory
	Reporter     Reporter
	Logger       *log.Logger
	Out          io.Writer
}

// Monitor runs the full pull request flow.
func (s *Service) Monitor(ctx context.Context, opts MonitorOptions) (MonitorResult, error) {
	h := &MonitorHandler{
		ConfigLoader: s.ConfigLoader,
		EventLoader:  s.EventLoader,
		Parser:       s.Parser,
		Renderer:     s.Renderer,
		LocalStore:   s.LocalStore,
		RemoteStores: s.RemoteStores,
		Platforms:    s.Platforms,
		Logger:       s.Logger,
	}
	return h.Monitor(ctx, opts)
}

// Summarize evaluates the current report locally.
func (s *Service) Summarize(ctx context.Context, opts SummaryOptions) (Summary, error) {
	return s.summaries().Summarize(ctx, opts)
}

// Render evaluates locally and writes the summary to Out.
func (s *Service) Render(ctx context.Context, opts SummaryOptions, format OutputFormat) (Summary, error) {
	summary, err := s.Summarize(ctx, opts)
	if err != nil {
		return Summary{}, err
	}
	return summary, s.Reporter.Write(s.Out, summary, format)
}

// PushBaseline stores the current report as the baseline.
func (s *Service) PushBaseline(ctx context.Context, opts PushOptions) (PushResult, error) {
	h := &BaselineHandler{
		ConfigLoader: s.ConfigLoader,
		Parser:       s.Parser,
		LocalStore:   s.LocalStore,
		RemoteStores: s.RemoteStores,
		Logger:       s.Logger,
	}
	return h.Push(ctx, opts)
}

// Watch re-evaluates the report whenever it changes.
func (s *Service) Watch(ctx context.Context, opts WatchOptions, watcher FileWatcher, callback WatchCallback) error {
	return (&WatchHandler{Summaries: s.summaries()}).Watch(ctx, opts, watcher, callback)
}

func (s *Service) summaries() *SummaryHandler {
	return &SummaryHandler{
		ConfigLoader: s.ConfigLoader,
		Parser:       s.Parser,
		Renderer:     s.Renderer,
		LocalStore:   s.LocalStore,
		RemoteStores: s.RemoteStores,
		Logger:       s.Logger,
	}
}

// Log returns the service logger, never nil.
func (s *Service) Log() *log.Logger {
	if s.Logger == nil {
		s.Logger = orDiscard(nil)
	}
	return s.Logger
}
