// main.go is the privileged helper for swifile.
// It is spawned as root by the caller with a positional argv, performs the
// requested file operations and reports through stdout lines and its exit
// code. It reads no configuration and no environment.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/command"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/fileops"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/helper"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/logging"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/persona"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/version"
)

const programName = "roothelper"

func main() {
	// Logs go to stderr; stdout carries results only.
	logger := logging.NewLogger(os.Stderr, "error")

	os.Exit(run(os.Args, os.Stdout, os.Stderr, afero.NewOsFs(), logger))
}

// run executes one helper invocation and returns the process exit code.
func run(argv []string, stdout, stderr io.Writer, fs afero.Fs, logger *slog.Logger) int {
	if len(argv) == 2 && argv[1] == "--version" {
		fmt.Fprintln(stdout, version.Info(programName))
		return helper.ExitOK
	}

	command.ProgramName = programName
	inv, err := command.ParseWithUsage(argv, stderr)
	if err != nil {
		return fail(stderr, err)
	}

	ops := fileops.New(fs, logger,
		fileops.WithOwner(int(persona.MobileUID), int(persona.MobileUID)),
	)
	d := command.NewDispatcher(ops, stdout, logger)

	if err := d.Dispatch(inv); err != nil {
		return fail(stderr, err)
	}
	return helper.ExitOK
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %s\n", err)
	return helper.ExitCodeFor(err)
}
