// Package compiler runs the CoffeeScript command line compiler for single
// source files.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/listenupapp/coffeeguard/internal/domain"
	domainerrors "github.com/listenupapp/coffeeguard/internal/errors"
)

// DefaultCommand is used when no compiler command is configured.
const DefaultCommand = "coffee"

// Coffee compiles by running `<command> --print --compile [--bare]
// [--inline-map] <source>` and writing stdout to the target path.
type Coffee struct {
	argv   []string
	logger *slog.Logger
}

// New parses command with shell word splitting ("npx coffee", quoted paths
// and $VARS all work) and returns a compiler that runs it.
func New(command string, logger *slog.Logger) (*Coffee, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}

	argv, err := shell.Fields(command, nil)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeValidation, "parse compiler command %q", command)
	}
	if len(argv) == 0 {
		return nil, domainerrors.Validationf("compiler command %q is empty", command)
	}

	return &Coffee{
		argv:   argv,
		logger: logger,
	}, nil
}

// Args returns the full argument list used for source.
func (c *Coffee) Args(source string, opts domain.Options) []string {
	args := make([]string, 0, len(c.argv)+4)
	args = append(args, c.argv[1:]...)
	args = append(args, "--print", "--compile")
	if opts.Bare {
		args = append(args, "--bare")
	}
	if opts.SourceMap {
		args = append(args, "--inline-map")
	}
	return append(args, source)
}

// Compile implements runner.Compiler. The artifact is only replaced when the
// compiler succeeds.
func (c *Coffee) Compile(ctx context.Context, source, target string, opts domain.Options) error {
	cmd := exec.CommandContext(ctx, c.argv[0], c.Args(source, opts)...) //#nosec G204 -- compiler command is operator configuration

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("running compiler", "command", cmd.String())

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return domainerrors.CompileFailed(source, err)
	}

	if err := writeFileAtomic(target, stdout.Bytes()); err != nil {
		return domainerrors.CompileFailed(source, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, creating parent directories as needed.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        //nolint:errcheck // already failing
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("chmod artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}
