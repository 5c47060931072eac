// Package session runs the configured jobs against one loaded dataset.
// A Session is created once per process, loads the input, runs every job
// and is stopped at the end.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tabflow/internal/config"
	"tabflow/internal/frame"
	"tabflow/internal/history"
	"tabflow/internal/pipeline"
	"tabflow/internal/sink"
)

// Session owns the sink and the optional history store.
type Session struct {
	id     string
	cfg    *config.Config
	logger *zap.Logger
	sink   *sink.Sink
	store  *history.Store
	out    io.Writer
	now    func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithOutput sets where the schema and sample rows are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.out = w }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New validates cfg and opens the resources a run needs.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	snk, err := sink.New(cfg.Output)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:   uuid.NewString(),
		cfg:  cfg,
		sink: snk,
		out:  os.Stdout,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.With(zap.String("session", s.id))

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		s.store = store
	}

	s.logger.Debug("Session started",
		zap.String("input", cfg.Input.Path),
		zap.Int("jobs", len(cfg.Jobs)),
		zap.Int("parallelism", cfg.Run.Parallelism))
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

// Load reads the input dataset once.
func (s *Session) Load(ctx context.Context) (dataframe.DataFrame, error) {
	start := s.now()
	df, err := frame.Load(ctx, s.cfg.Input, s.cfg.InputFormat())
	if err != nil {
		return df, fmt.Errorf("load %s: %w", s.cfg.Input.Path, err)
	}
	s.logger.Info("Input loaded",
		zap.String("input", s.cfg.Input.Path),
		zap.Int("rows", df.Nrow()),
		zap.Int("cols", df.Ncol()),
		zap.Duration("duration", s.now().Sub(start)))
	return df, nil
}

// Inspect prints the schema and the first sample rows.
func (s *Session) Inspect(w io.Writer, df dataframe.DataFrame, n int) error {
	if _, err := fmt.Fprintln(w, "Schema:"); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, frame.Schema(df)); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Sample Data:"); err != nil {
		return err
	}
	return frame.Show(w, df, n)
}

// Run loads the input and runs every job, recording the run in history
// when enabled.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		SessionID: s.ID(),
		RunID:     uuid.NewString(),
		Input:     s.cfg.Input.Path,
		StartedAt: s.now(),
	}
	logger := s.logger.With(zap.String("run_id", report.RunID))

	if s.store != nil {
		if err := s.store.Begin(ctx, report.RunID, report.Input, report.StartedAt); err != nil {
			return nil, err
		}
	}

	err := s.run(ctx, logger, report)
	report.Duration = s.now().Sub(report.StartedAt)

	if s.store != nil {
		// Record the outcome even when ctx was cancelled.
		finishErr := s.store.Finish(context.WithoutCancel(ctx), report.RunID,
			report.StartedAt.Add(report.Duration), report.Jobs, err)
		if finishErr != nil {
			logger.Warn("Failed to record run", zap.Error(finishErr))
		}
	}

	if err != nil {
		logger.Error("Run failed", zap.Error(err), zap.Duration("duration", report.Duration))
		return report, err
	}
	logger.Info("Run finished",
		zap.Int("jobs", len(report.Jobs)),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (s *Session) run(ctx context.Context, logger *zap.Logger, report *Report) error {
	df, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if s.cfg.Inspect.Enabled {
		if err := s.Inspect(s.out, df, s.cfg.Inspect.SampleRows); err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
	}

	jobs, err := s.RunFrame(ctx, logger, df)
	report.Jobs = jobs
	return err
}

// RunFrame runs every configured job against df with at most
// run.parallelism jobs in flight. The first failure cancels the rest.
// Results are returned in configured order; failed or skipped jobs are left out.
func (s *Session) RunFrame(ctx context.Context, logger *zap.Logger, df dataframe.DataFrame) ([]history.JobResult, error) {
	if logger == nil {
		logger = s.logger
	}
	results := make([]*history.JobResult, len(s.cfg.Jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Run.Parallelism)
	for i, job := range s.cfg.Jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.runJob(logger, job, df)
			if err != nil {
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()

	out := make([]history.JobResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, err
}

func (s *Session) runJob(logger *zap.Logger, job config.Job, df dataframe.DataFrame) (*history.JobResult, error) {
	start := s.now()
	logger = logger.With(zap.String("job", job.Name))

	dp := pipeline.FromJob(job)
	logger.Debug("Job started", zap.Int("steps", dp.Len()))

	result, err := dp.Apply(df)
	if err != nil {
		return nil, err
	}

	path := s.cfg.OutputPath(job)
	written, err := s.sink.Write(path, job.Name, result)
	if err != nil {
		return nil, err
	}

	res := &history.JobResult{
		Job:      job.Name,
		Output:   path,
		Rows:     result.Nrow(),
		Cols:     result.Ncol(),
		Written:  written,
		Duration: s.now().Sub(start),
	}
	if !written {
		logger.Info("Output exists, skipped", zap.String("output", path))
	} else {
		logger.Info("Job finished",
			zap.String("output", path),
			zap.Int("rows", res.Rows),
			zap.Duration("duration", res.Duration))
	}
	return res, nil
}

// History returns the store, nil when history is disabled.
func (s *Session) History() *history.Store {
	return s.store
}

// Stop releases the session resources.
func (s *Session) Stop() error {
	s.logger.Debug("Session stopped")
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
