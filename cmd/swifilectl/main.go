// swifilectl is the caller-side entry point for swifile.
//
// It locates the elevated root, spawns commands under a persona and drives
// the root helper with the same argument grammar the helper parses. Every
// subcommand exits with the code of the process it ran, so scripts can treat
// swifilectl like the underlying command.
//
// Configuration is loaded from /etc/swifile/config.yaml (or the path given by
// --config). A missing file means defaults.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/config"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/logging"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/persona"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/rootfs"
)

const programName = "swifilectl"

func main() {
	// A signal before a child starts aborts the spawn. A started child runs
	// to completion and receives terminal signals itself.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitCode carries a process exit status out of a cobra RunE.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// execute runs the command tree with args and returns the exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &cli{fs: afero.NewOsFs()}
	root := newRootCmd(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var code exitCode
	if errors.As(err, &code) {
		return int(code)
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// cli holds state shared by the subcommands.
type cli struct {
	configPath string
	logLevel   string

	fs     afero.Fs
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(app *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Locate the elevated root and run privileged file operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&app.configPath, "config", config.DefaultConfigPath, "path to configuration file")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newLocateCmd(app),
		newSpawnCmd(app),
		newShellCmd(app),
		newHelperCmd(app),
		newConfigCmd(app),
		newVersionCmd(),
	)
	return root
}

// load reads configuration and sets up logging. Logs go to stderr so stdout
// carries only command output.
func (c *cli) load(cmd *cobra.Command) error {
	if c.cfg != nil {
		return nil
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		if !logging.ValidLevel(c.logLevel) {
			return fmt.Errorf("%w: %q", config.ErrInvalidLogLevel, c.logLevel)
		}
		cfg.LogLevel = c.logLevel
	}

	c.cfg = cfg
	c.logger = logging.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	c.logger.Debug("configuration loaded",
		slog.String("config_path", c.configPath),
		slog.String("helper_path", cfg.HelperPath),
	)
	return nil
}

// locator returns the configured fixed root or a probing locator.
func (c *cli) locator() persona.RootLocator {
	if prefix, ok := c.cfg.FixedRoot(); ok {
		return rootfs.Fixed(prefix)
	}

	l := rootfs.NewLocator(c.fs, c.logger)
	l.ShellPath = c.cfg.Locator.ShellPath
	l.AlternatePrefixes = c.cfg.Locator.AlternatePrefixes
	l.BundleDir = c.cfg.Locator.BundleDir
	l.Marker = c.cfg.Locator.Marker
	return l
}
