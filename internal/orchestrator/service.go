// Package orchestrator decides which sync capabilities run and in which order.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"thothsync/internal/observability"
	"thothsync/internal/syncer"
)

var ErrBootstrapMissing = errors.New("bootstrap capability " + syncer.BootstrapName + " is not registered")

// RunConfig is built once from the command line and never changed.
type RunConfig struct {
	ForceSync bool
	Graceful  bool
	Debug     bool
	// DocumentClasses limits the run to the named capabilities. Empty runs all.
	DocumentClasses []string
}

// Report lists the capabilities invoked, in invocation order.
type Report struct {
	Invoked []string
}

type Service struct {
	Registry *syncer.Registry
	Graph    syncer.Graph
	Observer *observability.SyncObserver
	Logger   *zap.Logger
}

func NewService(reg *syncer.Registry, graph syncer.Graph, observer *observability.SyncObserver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = observability.NewSyncObserver(logger, "")
	}
	return &Service{
		Registry: reg,
		Graph:    graph,
		Observer: observer,
		Logger:   logger,
	}
}

// Run invokes capabilities one after another. Without a filter the bootstrap
// capability runs first, then every other capability carrying the sync
// prefix. With a filter only the first registered capability named in it
// runs. The first capability error ends the run.
func (s *Service) Run(ctx context.Context, cfg RunConfig) (Report, error) {
	var report Report
	if s == nil || s.Registry == nil {
		return report, errors.New("capability registry not configured")
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Debug {
		logger.Debug("Debug mode is on.")
	}

	filter := make(map[string]struct{}, len(cfg.DocumentClasses))
	for _, name := range cfg.DocumentClasses {
		filter[name] = struct{}{}
	}
	filtered := len(filter) > 0

	if !filtered {
		bootstrap, ok := s.Registry.Lookup(syncer.BootstrapName)
		if !ok {
			return report, ErrBootstrapMissing
		}
		if err := s.invoke(ctx, cfg, bootstrap, &report, zap.Bool("bootstrap", true)); err != nil {
			return report, err
		}
	}

	for _, c := range s.Registry.Capabilities() {
		if !filtered && !c.Eligible() {
			logger.Debug("Skipping capability: not a syncing function", zap.String("capability", c.Name))
			continue
		}
		if !filtered && c.Name == syncer.BootstrapName {
			logger.Debug("Skipping capability: solver already synced", zap.String("capability", c.Name))
			continue
		}
		if filtered {
			if _, ok := filter[c.Name]; !ok {
				logger.Debug("Skipping capability: not requested", zap.String("capability", c.Name))
				continue
			}
			// Only the first requested capability runs, even if more were named.
			logger.Info(fmt.Sprintf("Scheduling sync for %q", c.Name), zap.String("capability", c.Name))
			err := s.invoke(ctx, cfg, c, &report)
			return report, err
		}
		if err := s.invoke(ctx, cfg, c, &report); err != nil {
			return report, err
		}
	}

	if filtered {
		logger.Warn("No registered capability matches the requested document classes",
			zap.Strings("document_classes", cfg.DocumentClasses))
	}
	return report, nil
}

func (s *Service) invoke(ctx context.Context, cfg RunConfig, c syncer.Capability, report *Report, fields ...zap.Field) error {
	report.Invoked = append(report.Invoked, c.Name)
	stats, err := c.Func(ctx, cfg.ForceSync, cfg.Graceful, s.Graph)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	s.Observer.RecordStats(ctx, c.Name, stats, fields...)
	return nil
}
