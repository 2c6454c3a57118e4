// Package audit runs the external component validator and turns its JSON
// report into per-component security results.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/starford/vaultkit/internal/manifest"
)

// DefaultTimeout bounds a validator run.
const DefaultTimeout = 5 * time.Minute

// Report is the validator's JSON output.
type Report struct {
	Components []Result `json:"components"`
}

// Result is the validator's verdict for one component.
type Result struct {
	Path         string                     `json:"path"`
	Type         string                     `json:"type"`
	Valid        bool                       `json:"valid"`
	Score        int                        `json:"score"`
	ErrorCount   int                        `json:"errorCount"`
	WarningCount int                        `json:"warningCount"`
	Validators   map[string]json.RawMessage `json:"validators"`
}

// Runner invokes the validator command.
type Runner struct {
	name    string
	args    []string
	dir     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a Runner for command name with args, run in dir.
// timeout <= 0 selects DefaultTimeout.
func NewRunner(name string, args []string, dir string, timeout time.Duration, logger *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{name: name, args: args, dir: dir, timeout: timeout, logger: logger}
}

// Run executes the validator and returns results keyed by type/category/name.
// A timeout, a failed run without a report, or an unreadable report is
// logged and yields an empty map.
func (r *Runner) Run(ctx context.Context) map[string]manifest.Security {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.name, r.args...)
	cmd.Dir = r.dir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	if ctx.Err() != nil {
		r.logger.Warn("audit: timed out, continuing without security data",
			slog.Duration("timeout", r.timeout))
		return map[string]manifest.Security{}
	}

	report, err := Parse(stdout.Bytes())
	if err != nil {
		attrs := []any{slog.String("error", err.Error())}
		if runErr != nil {
			attrs = append(attrs, slog.String("exit", runErr.Error()), slog.String("stderr", tail(stderr.String(), 500)))
		}
		r.logger.Warn("audit: no usable report, continuing without security data", attrs...)
		return map[string]manifest.Security{}
	}
	if runErr != nil {
		r.logger.Info("audit: validator reported failures", slog.String("exit", runErr.Error()))
	}

	out := Lookup(report)
	r.logger.Info("audit: completed",
		slog.Int("components", len(out)),
		slog.Duration("elapsed", time.Since(start)))
	return out
}

// Parse decodes a report, skipping any output that precedes it. Each "{"
// is tried in turn; the first object carrying a components list wins.
func Parse(out []byte) (*Report, error) {
	err := errors.New("audit: no JSON in output")
	for i := 0; i < len(out); i++ {
		j := bytes.IndexByte(out[i:], '{')
		if j < 0 {
			break
		}
		i += j
		var rep Report
		decErr := json.NewDecoder(bytes.NewReader(out[i:])).Decode(&rep)
		switch {
		case decErr != nil:
			err = fmt.Errorf("audit: decode report: %w", decErr)
		case rep.Components == nil:
			err = errors.New("audit: no components in report")
		default:
			return &rep, nil
		}
	}
	return nil, err
}

// Lookup indexes a report by manifest key.
func Lookup(rep *Report) map[string]manifest.Security {
	out := make(map[string]manifest.Security, len(rep.Components))
	for _, c := range rep.Components {
		v := c.Validators
		if v == nil {
			v = map[string]json.RawMessage{}
		}
		out[manifest.KeyFor(c.Type, c.Path)] = manifest.Security{
			Validated:    true,
			Valid:        c.Valid,
			Score:        c.Score,
			ErrorCount:   c.ErrorCount,
			WarningCount: c.WarningCount,
			Validators:   v,
		}
	}
	return out
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
