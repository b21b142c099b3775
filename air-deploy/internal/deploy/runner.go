package deploy

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kurta17/Environmental-Monitoring-System/air-deploy/internal/logger"
)

// CommandRunner abstracts the cloud CLI so the deployment flow can be
// tested without invoking gcloud.
type CommandRunner interface {
	// Run executes a command, streaming its output to the console.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes a command and returns its trimmed stdout.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

type ExecRunner struct {
	logger logger.Logger
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		logger: logger.New("info", "development").WithField("component", "exec_runner"),
	}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	// Full command lines can carry credentials, keep them at debug level.
	r.logger.Debugf("Executing: %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w", name, firstArg(args), err)
	}

	return nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	r.logger.Debugf("Executing: %s %s", name, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("%s %s failed: %w: %s", name, firstArg(args), err, detail)
		}
		return "", fmt.Errorf("%s %s failed: %w", name, firstArg(args), err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
