package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/orbitalworks/demands-service/internal/logging"
)

// EngineMode selects which analysis the engine performs.
type EngineMode string

const (
	ModeRawDemands        EngineMode = "demands-raw"
	ModeAggregatedDemands EngineMode = "demands-agg"
)

// RunRequest describes one engine invocation. The consume-resources flag is
// an on/off switch: it appears on the command line only when true.
type RunRequest struct {
	Mode             EngineMode
	InputPath        string
	OutputPath       string
	ConsumeResources bool
	Timeout          time.Duration
}

// RunOutcome is the observed result of an engine invocation. Output holds
// the combined stdout/stderr text captured for diagnostics.
type RunOutcome struct {
	ExitCode int
	Output   string
	TimedOut bool
}

// EngineRunner runs the external simulation engine. Implementations must
// guarantee the child process has terminated before Run returns, so callers
// can safely tear down the working area afterwards.
type EngineRunner interface {
	Run(ctx context.Context, req RunRequest) (RunOutcome, error)
}

// ExecEngine runs the engine as a child process. The argv prefix is the
// executable plus any fixed leading arguments; per-invocation arguments are
// appended by Run.
type ExecEngine struct {
	argv []string
	log  logging.Logger
}

// NewExecEngine builds an ExecEngine from an argv prefix.
func NewExecEngine(log logging.Logger, argv ...string) (*ExecEngine, error) {
	if len(argv) == 0 {
		return nil, errors.New("NewExecEngine: empty argv")
	}
	if log == nil {
		log = logging.Noop()
	}
	return &ExecEngine{argv: argv, log: log}, nil
}

// NewSpaceNetEngine builds an ExecEngine for the SpaceNet headless jar,
// invoked through the given java binary.
func NewSpaceNetEngine(log logging.Logger, javaPath, jarPath string) (*ExecEngine, error) {
	return NewExecEngine(log, javaPath, "-jar", jarPath)
}

// Run executes one engine invocation under the request's wall-clock budget.
// On timeout the child is killed and waited on before Run returns with
// TimedOut set; a non-zero exit is reported through ExitCode, not an error.
// An error return means the invocation itself could not be carried out.
func (e *ExecEngine) Run(ctx context.Context, req RunRequest) (RunOutcome, error) {
	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	args := append([]string(nil), e.argv[1:]...)
	args = append(args, "-h", string(req.Mode), "-i", req.InputPath, "-o", req.OutputPath)
	if req.ConsumeResources {
		args = append(args, "-c")
	}

	cmd := exec.CommandContext(runCtx, e.argv[0], args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	// Don't let an orphaned grandchild holding the output pipe stall Wait
	// after the engine process itself is gone.
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	// cmd.Run has waited on the child by now, even when the context fired
	// and killed it; nothing is left writing into the working area.
	switch {
	case err != nil && runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		e.log.Warn(ctx, "engine run timed out",
			logging.String("mode", string(req.Mode)),
			logging.Duration("timeout", req.Timeout),
		)
		return RunOutcome{Output: output.String(), TimedOut: true}, nil
	case ctx.Err() != nil:
		return RunOutcome{}, ctx.Err()
	case err == nil:
		e.log.Debug(ctx, "engine run completed",
			logging.String("mode", string(req.Mode)),
			logging.Duration("elapsed", elapsed),
		)
		return RunOutcome{ExitCode: 0, Output: output.String()}, nil
	}

	if errors.Is(err, exec.ErrWaitDelay) {
		// Process exited zero; only a leaked pipe held Wait open.
		return RunOutcome{ExitCode: 0, Output: output.String()}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		e.log.Warn(ctx, "engine run failed",
			logging.String("mode", string(req.Mode)),
			logging.Int("exit_code", exitErr.ExitCode()),
		)
		return RunOutcome{ExitCode: exitErr.ExitCode(), Output: output.String()}, nil
	}
	return RunOutcome{}, fmt.Errorf("start engine: %w", err)
}
