package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/orbitalworks/demands-service/internal/logging"
	"github.com/orbitalworks/demands-service/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// resultsFileName is the engine's output file inside the working area.
const resultsFileName = "results.json"

// Scenario is one uploaded scenario file. Filename is a hint used only for
// staging; it is sanitized before use and never trusted as a path.
type Scenario struct {
	Filename string
	Content  []byte
}

// EngineMetricsRecorder receives engine invocation outcomes.
type EngineMetricsRecorder interface {
	ObserveEngineRun(mode, outcome string, elapsed time.Duration)
}

// AnalyzerOption customizes an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithMetricsRecorder attaches an optional recorder for engine run outcomes.
func WithMetricsRecorder(m EngineMetricsRecorder) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

// Analyzer orchestrates one analysis request: it stages the scenario into an
// isolated working area, invokes the engine under a wall-clock budget,
// classifies the outcome, and parses successful output into the domain
// model. Analyzers are stateless and safe for concurrent use; each request
// gets its own working area and child process.
type Analyzer struct {
	engine  EngineRunner
	log     logging.Logger
	metrics EngineMetricsRecorder
	tracer  trace.Tracer
}

// NewAnalyzer builds an Analyzer around the given engine runner.
func NewAnalyzer(engine EngineRunner, log logging.Logger, opts ...AnalyzerOption) *Analyzer {
	if log == nil {
		log = logging.Noop()
	}
	a := &Analyzer{
		engine: engine,
		log:    log,
		tracer: otel.Tracer("demands-analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeRawDemands runs the demands-raw analysis for one scenario.
func (a *Analyzer) AnalyzeRawDemands(ctx context.Context, scenario Scenario, consumeResources bool, timeout time.Duration) (*model.RawDemandsAnalysis, error) {
	data, err := a.runAnalysis(ctx, ModeRawDemands, scenario, consumeResources, timeout)
	if err != nil {
		return nil, err
	}
	_, span := a.tracer.Start(ctx, "demands.parse",
		trace.WithAttributes(attribute.String("demands.mode", string(ModeRawDemands))),
	)
	defer span.End()

	analysis, err := ParseRawDemandsAnalysis(data)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		a.logParseFailure(ctx, ModeRawDemands, err)
		return nil, err
	}
	return analysis, nil
}

// AnalyzeAggregatedDemands runs the demands-agg analysis for one scenario.
func (a *Analyzer) AnalyzeAggregatedDemands(ctx context.Context, scenario Scenario, consumeResources bool, timeout time.Duration) (*model.AggregatedDemandsAnalysis, error) {
	data, err := a.runAnalysis(ctx, ModeAggregatedDemands, scenario, consumeResources, timeout)
	if err != nil {
		return nil, err
	}
	_, span := a.tracer.Start(ctx, "demands.parse",
		trace.WithAttributes(attribute.String("demands.mode", string(ModeAggregatedDemands))),
	)
	defer span.End()

	analysis, err := ParseAggregatedDemandsAnalysis(data)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		a.logParseFailure(ctx, ModeAggregatedDemands, err)
		return nil, err
	}
	return analysis, nil
}

func (a *Analyzer) logParseFailure(ctx context.Context, mode EngineMode, err error) {
	a.log.Warn(ctx, "engine result failed to parse",
		logging.String("mode", string(mode)),
		logging.String("error", err.Error()),
	)
}

// runAnalysis stages the scenario, runs the engine, and returns the raw
// bytes of the result file. The working area is removed on every exit path;
// only the engine runner's no-dangling-process guarantee makes that safe.
func (a *Analyzer) runAnalysis(ctx context.Context, mode EngineMode, scenario Scenario, consumeResources bool, timeout time.Duration) ([]byte, error) {
	ctx, span := a.tracer.Start(ctx, "demands.analyze",
		trace.WithAttributes(
			attribute.String("demands.mode", string(mode)),
			attribute.Bool("demands.consume_resources", consumeResources),
		),
	)
	defer span.End()

	workDir, err := os.MkdirTemp("", "demands-")
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("create working area: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			// Never masks the primary result; a leaked directory is only
			// worth a log line.
			a.log.Warn(ctx, "failed to remove working area",
				logging.String("dir", workDir),
				logging.String("error", rmErr.Error()),
			)
		}
	}()

	inputPath := filepath.Join(workDir, SanitizeScenarioFilename(scenario.Filename))
	outputPath := filepath.Join(workDir, resultsFileName)
	if err := os.WriteFile(inputPath, scenario.Content, 0o600); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("stage scenario: %w", err)
	}

	start := time.Now()
	outcome, err := a.engine.Run(ctx, RunRequest{
		Mode:             mode,
		InputPath:        inputPath,
		OutputPath:       outputPath,
		ConsumeResources: consumeResources,
		Timeout:          timeout,
	})
	elapsed := time.Since(start)
	if err != nil {
		a.observeRun(mode, "error", elapsed)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("run engine: %w", err)
	}

	switch {
	case outcome.TimedOut:
		a.observeRun(mode, "timeout", elapsed)
		timeoutErr := &EngineTimeoutError{Timeout: timeout}
		span.SetStatus(codes.Error, timeoutErr.Error())
		return nil, timeoutErr
	case outcome.ExitCode != 0:
		a.observeRun(mode, "failed", elapsed)
		execErr := &EngineExecutionError{ExitCode: outcome.ExitCode, Output: outcome.Output}
		span.SetStatus(codes.Error, execErr.Error())
		return nil, execErr
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		a.observeRun(mode, "failed", elapsed)
		if errors.Is(err, os.ErrNotExist) {
			// Zero exit but no result file: the engine broke its contract.
			contractErr := &EngineExecutionError{
				Output: outcome.Output,
				Reason: "engine exited successfully but produced no output file",
			}
			span.SetStatus(codes.Error, contractErr.Error())
			return nil, contractErr
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("read engine output: %w", err)
	}

	a.observeRun(mode, "ok", elapsed)
	a.log.Info(ctx, "analysis completed",
		logging.String("mode", string(mode)),
		logging.Int("result_bytes", len(data)),
		logging.Duration("elapsed", elapsed),
	)
	return data, nil
}

func (a *Analyzer) observeRun(mode EngineMode, outcome string, elapsed time.Duration) {
	if a.metrics == nil {
		return
	}
	a.metrics.ObserveEngineRun(string(mode), outcome, elapsed)
}
