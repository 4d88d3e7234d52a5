// Package shell runs ad-hoc shell scripts outside the harness pipeline in
// the in-process mvdan.cc/sh interpreter, used by the CLI's diagnostic probe
// as a smoke test that parses no recipe. It does not start the configured
// system interpreter or load its library/config.
package shell

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/arch-tools/pkgbuild/pkg/logger"
)

// RunScript parses and runs cmds in a throwaway mvdan.cc/sh interpreter,
// inheriting the current process's environment and connecting its output to
// stdout/stderr directly. It is not part of the harness pipeline: the
// harness always runs PKGBUILDs through a real system shell so that
// makepkg's own library functions and PKGBUILD quirks behave identically to
// makepkg itself, whereas RunScript only runs a trivial script in-process;
// it never starts the configured interpreter binary.
func RunScript(cmds string) error {
	return RunScriptContext(context.Background(), cmds)
}

// RunScriptContext is RunScript with caller-supplied cancellation.
func RunScriptContext(ctx context.Context, cmds string) error {
	logger.Debug("running probe script", "bytes", len(cmds))

	script, err := syntax.NewParser().Parse(strings.NewReader(cmds), "")
	if err != nil {
		return errors.Wrap(err, "failed to parse script")
	}

	runner, err := interp.New(
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, os.Stdout, os.Stderr),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create script runner")
	}

	start := time.Now()
	err = runner.Run(ctx, script)
	duration := time.Since(start)

	if err != nil {
		logger.Error("probe script failed", "error", err, "duration", duration)

		return errors.Wrap(err, "script execution failed")
	}

	logger.Debug("probe script completed", "duration", duration)

	return nil
}
