package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrScriptFailed covers spawn errors, non-zero exits and timeouts.
	ErrScriptFailed = errors.New("refresh script failed")
	// ErrStderrOutput is returned when the script wrote to stderr, whatever its exit code.
	ErrStderrOutput = errors.New("refresh script wrote to stderr")
	// ErrEmptyOutput is returned when stdout is blank.
	ErrEmptyOutput = errors.New("refresh script produced no output")
	// ErrUnparsableOutput is returned when stdout is not JSON and no fallback images exist.
	ErrUnparsableOutput = errors.New("refresh script output is not valid JSON")
)

// Outcome tags a successful refresh.
type Outcome string

const (
	// OutcomeSuccess means the script reported a parsable result.
	OutcomeSuccess Outcome = "success"
	// OutcomeDegraded means the output was unparsable and previously generated
	// images are reused.
	OutcomeDegraded Outcome = "degraded"
)

// Result is the refresh outcome handed to the orchestrator.
type Result struct {
	Outcome Outcome                    `json:"outcome"`
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Results map[string]json.RawMessage `json:"results,omitempty"`
	Warning string                     `json:"warning,omitempty"`
}

// Degraded reports whether stale artifacts are being used.
func (r Result) Degraded() bool {
	return r.Outcome == OutcomeDegraded
}

// Invoker runs the external report refresh script.
type Invoker struct {
	runner      Runner
	interpreter string
	script      string
	timeout     time.Duration
	images      []string
	logger      *zap.Logger
}

// Options configures an Invoker. FallbackImages are the files that must all
// exist for the degraded fallback to apply.
type Options struct {
	Interpreter    string
	Script         string
	Timeout        time.Duration
	FallbackImages []string
}

// NewInvoker wires an invoker. A nil runner uses ExecRunner.
func NewInvoker(runner Runner, opts Options, logger *zap.Logger) *Invoker {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{
		runner:      runner,
		interpreter: opts.Interpreter,
		script:      opts.Script,
		timeout:     opts.Timeout,
		images:      opts.FallbackImages,
		logger:      logger,
	}
}

// Refresh runs the script once and classifies its output.
func (i *Invoker) Refresh(ctx context.Context) (Result, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	name, args := i.script, []string(nil)
	if i.interpreter != "" {
		name, args = i.interpreter, []string{i.script}
	}

	i.logger.Info("running refresh script", zap.String("command", name), zap.Strings("args", args))
	stdout, stderr, err := i.runner.Run(ctx, name, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%v: %w", err, ctxErr)
		}
		i.logger.Error("refresh script failed", zap.Error(err), zap.ByteString("stderr", stderr))
		return Result{}, fmt.Errorf("%w: %v", ErrScriptFailed, err)
	}

	if msg := strings.TrimSpace(string(stderr)); msg != "" {
		i.logger.Error("refresh script wrote to stderr", zap.String("stderr", msg))
		return Result{}, fmt.Errorf("%w: %s", ErrStderrOutput, msg)
	}

	out := strings.TrimSpace(string(stdout))
	if out == "" {
		i.logger.Error("refresh script produced no output")
		return Result{}, ErrEmptyOutput
	}

	var payload struct {
		Success bool                       `json:"success"`
		Message string                     `json:"message"`
		Results map[string]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return i.fallback(err, out)
	}

	i.logger.Info("refresh script completed",
		zap.Bool("success", payload.Success),
		zap.String("message", payload.Message))
	return Result{
		Outcome: OutcomeSuccess,
		Success: payload.Success,
		Message: payload.Message,
		Results: payload.Results,
	}, nil
}

func (i *Invoker) fallback(parseErr error, stdout string) (Result, error) {
	missing := i.missingImages()
	if len(i.images) == 0 || len(missing) > 0 {
		i.logger.Error("refresh output unparsable and no fallback images",
			zap.Error(parseErr),
			zap.Strings("missing", missing),
			zap.String("stdout", stdout))
		return Result{}, fmt.Errorf("%w: %v", ErrUnparsableOutput, parseErr)
	}

	warning := fmt.Sprintf("refresh output unparsable (%v); reusing existing report images", parseErr)
	i.logger.Warn("refresh degraded to stale images",
		zap.Error(parseErr),
		zap.Strings("images", i.images),
		zap.String("stdout", stdout))
	return Result{
		Outcome: OutcomeDegraded,
		Success: true,
		Message: "report images exist from a previous run",
		Warning: warning,
	}, nil
}

func (i *Invoker) missingImages() []string {
	var missing []string
	for _, path := range i.images {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}
