// Package parser is the Driver/Facade: it builds the harness once per
// Parser instance, spawns the shell child for each call, hands its pipes to
// the child-I/O pump, and assembles the stream parser + lifter output into
// owned records, enforcing the input/output count invariant.
package parser

import (
	"os"
	"os/exec"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/arch-tools/pkgbuild/pkg/childio"
	pkgerrors "github.com/arch-tools/pkgbuild/pkg/errors"
	"github.com/arch-tools/pkgbuild/pkg/harness"
	"github.com/arch-tools/pkgbuild/pkg/lifter"
	"github.com/arch-tools/pkgbuild/pkg/logger"
	"github.com/arch-tools/pkgbuild/pkg/pkgbuild"
	"github.com/arch-tools/pkgbuild/pkg/streamparser"
)

// defaultPKGBUILD is the path parse_one(None) falls back to.
const defaultPKGBUILD = "./PKGBUILD"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// ParserOptions configures a Parser. Interpreter/LibraryPath/ConfigPath must
// be non-empty; the validator tags enforce that at construction time rather
// than surfacing a confusing failure from the shell spawn itself.
type ParserOptions struct {
	Interpreter string `validate:"required"`
	WorkingDir  string `validate:""`
	LibraryPath string `validate:"required"`
	ConfigPath  string `validate:"required"`

	// HarnessPath, when non-empty, is a caller-owned persistent path the
	// harness script is written to instead of an auto-removed tempfile.
	HarnessPath string `validate:""`

	// Policy selects the child-I/O pump strategy; zero value is Threaded.
	Policy childio.Policy
}

// DefaultParserOptions returns the conventional defaults: /bin/bash,
// no working-directory override, and library/config paths read from the
// LIBRARY/MAKEPKG_CONF environment variables (falling back to the standard
// makepkg install locations).
func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		Interpreter: "/bin/bash",
		LibraryPath: envOr("LIBRARY", "/usr/share/makepkg"),
		ConfigPath:  envOr("MAKEPKG_CONF", "/etc/makepkg.conf"),
	}
}

// Parser owns one harness script and its ParserOptions. Not safe for
// concurrent ParseMulti calls on the same instance; create one Parser per
// goroutine that needs to parse.
type Parser struct {
	options ParserOptions
	harness *harness.Harness
}

// New validates opts and builds the harness script, ready to parse.
func New(opts ParserOptions) (*Parser, error) {
	if err := validator.New().Struct(opts); err != nil {
		return nil, errors.Wrap(pkgerrors.Wrap(err, pkgerrors.ErrTypeIO,
			"invalid parser options"), "parser.New")
	}

	builder := harness.NewBuilder(opts.LibraryPath, opts.ConfigPath)
	builder.Interpreter = opts.Interpreter

	h, err := builder.Build(opts.HarnessPath)
	if err != nil {
		return nil, errors.Wrap(err, "parser.New")
	}

	return &Parser{options: opts, harness: h}, nil
}

// Close removes the harness script if it was an auto-managed tempfile.
func (p *Parser) Close() error {
	return p.harness.Close()
}

// ParseOne parses a single recipe. An empty path defaults to "./PKGBUILD".
func (p *Parser) ParseOne(path string) (*pkgbuild.Pkgbuild, error) {
	if path == "" {
		path = defaultPKGBUILD
	}

	results, err := p.ParseMulti([]string{path})
	if err != nil {
		return nil, err
	}

	return results[0], nil
}

// ParseMulti parses every path in order, returning one record per path in
// the same order. An empty slice returns an empty result without spawning
// a child at all.
func (p *Parser) ParseMulti(paths []string) ([]*pkgbuild.Pkgbuild, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	cmd := exec.Command(p.harness.Path)
	if p.options.WorkingDir != "" {
		cmd.Dir = p.options.WorkingDir
	}

	pipes, err := childio.NewPipes(cmd)
	if err != nil {
		return nil, errors.Wrap(err, "parser.ParseMulti")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(pkgerrors.Wrap(err, pkgerrors.ErrTypeIO,
			"failed to spawn harness child"), "parser.ParseMulti")
	}

	stdout, stderr, pumpErr := pipes.Work(p.options.Policy, buildStdin(paths))
	if pumpErr != nil {
		if killErr := cmd.Process.Kill(); killErr != nil {
			logger.Warn("failed to kill harness child after pump failure", "error", killErr)
		}

		_ = cmd.Wait()

		return nil, errors.Wrap(pumpErr, "parser.ParseMulti")
	}

	waitErr := cmd.Wait()

	if len(stderr) > 0 {
		logger.Warn("harness child wrote to stderr", "stderr", string(stderr))
	}

	if waitErr != nil {
		return nil, classifyExit(cmd, waitErr)
	}

	trees, err := streamparser.Parse(stdout)
	if err != nil {
		return nil, errors.Wrap(err, "parser.ParseMulti")
	}

	records, err := lifter.LiftAll(trees)
	if err != nil {
		return nil, errors.Wrap(err, "parser.ParseMulti")
	}

	if len(records) != len(paths) {
		return nil, &pkgerrors.MismatchedResultCountError{
			Input:   len(paths),
			Output:  len(records),
			Partial: records,
		}
	}

	return records, nil
}

// buildStdin emits one path per line, prefixing bare filenames (no "/") with
// "./" so the shell's `source` never resolves them via PATH lookup.
func buildStdin(paths []string) []byte {
	var sb strings.Builder

	for _, path := range paths {
		if !strings.Contains(path, "/") {
			sb.WriteString("./")
		}

		sb.WriteString(path)
		sb.WriteByte('\n')
	}

	return []byte(sb.String())
}

// rawExitCode translates the 8-bit exit status the shell actually wrote
// (255/254/253 for the harness's `exit -1`/`-2`/`-3` conventions, since a
// negative exit status wraps mod 256) back into the original negative code.
func rawExitCode(code int) int {
	switch code {
	case 255:
		return -1
	case 254:
		return -2
	case 253:
		return -3
	default:
		return code
	}
}

// classifyExit turns a non-zero child exit into a structured error, naming
// the semantic class (§7) when the exit code is one of the harness's
// documented negative conventions.
func classifyExit(cmd *exec.Cmd, waitErr error) error {
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}

	translated := rawExitCode(code)
	class := pkgerrors.ClassifyChildExit(translated)

	return pkgerrors.Wrap(waitErr, pkgerrors.ErrTypeChildBadReturn,
		"harness child exited non-zero").
		WithContext("exit_code", translated).
		WithContext("class", class)
}
