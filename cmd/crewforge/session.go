package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rohankatakam/crewforge/internal/cache"
	"github.com/rohankatakam/crewforge/internal/config"
	"github.com/rohankatakam/crewforge/internal/crew"
	"github.com/rohankatakam/crewforge/internal/llm"
	"github.com/rohankatakam/crewforge/internal/models"
	"github.com/rohankatakam/crewforge/internal/requirements"
	"github.com/rohankatakam/crewforge/internal/storage"
	"github.com/sirupsen/logrus"
)

// session holds everything one or more crew runs share: the LLM client, the
// completion cache, run history and the loaded agent/task configs
type session struct {
	cfg       *config.Config
	client    *llm.Client
	completer llm.Completer
	cache     cache.Store
	runs      storage.RunStore
	agents    *crew.AgentsConfig
	tasks     *crew.TasksConfig
	logger    *logrus.Logger
}

type sessionOptions struct {
	noCache   bool
	noHistory bool
}

func openSession(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts sessionOptions) (*session, error) {
	agents, err := crew.LoadAgentsConfig(cfg.Crew.AgentsFile)
	if err != nil {
		return nil, err
	}
	tasks, err := crew.LoadTasksConfig(cfg.Crew.TasksFile)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:       cfg,
		client:    client,
		completer: client,
		agents:    agents,
		tasks:     tasks,
		logger:    logger,
	}

	if !opts.noCache {
		store, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("Completion cache unavailable, continuing without it")
		} else if store != nil {
			s.cache = store
			s.completer = llm.NewCachedCompleter(client, store, string(client.Provider()))
			logger.WithField("backend", cfg.Cache.Backend).Debug("Completion cache enabled")
		}
	}

	if !opts.noHistory {
		runs, err := storage.Open(cfg.Storage, logger)
		if err != nil {
			logger.WithError(err).Warn("Run history unavailable, continuing without it")
		} else {
			s.runs = runs
		}
	}

	return s, nil
}

func (s *session) Close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.WithError(err).Debug("Failed to close cache")
		}
	}
	if s.runs != nil {
		if err := s.runs.Close(); err != nil {
			s.logger.WithError(err).Debug("Failed to close run history")
		}
	}
}

// kickoff runs the engineering crew on brief. The returned run is nil when
// history is disabled.
func (s *session) kickoff(ctx context.Context, brief requirements.Preset, observers ...crew.Observer) (*crew.CrewOutput, *models.Run, error) {
	opts := []crew.Option{
		crew.WithOutputDir(s.cfg.Crew.OutputDir),
		crew.WithVerbose(s.cfg.Crew.Verbose),
	}
	for _, o := range observers {
		opts = append(opts, crew.WithObserver(o))
	}

	var run *models.Run
	if s.runs != nil {
		run = &models.Run{
			ID:          uuid.New().String(),
			Preset:      brief.Name,
			FeatureName: brief.FeatureName,
			Provider:    string(s.client.Provider()),
			Model:       s.client.Model(),
			OutputDir:   s.cfg.Crew.OutputDir,
		}
		opts = append(opts, crew.WithObserver(storage.NewRecorder(s.runs, run, s.logger)))
	}

	team, err := crew.NewEngineeringTeam(s.agents, s.tasks, s.completer, opts...)
	if err != nil {
		return nil, run, err
	}

	out, err := team.Kickoff(ctx, brief.Inputs())
	if err != nil {
		return nil, run, fmt.Errorf("crew kickoff failed: %w", err)
	}
	return out, run, nil
}
