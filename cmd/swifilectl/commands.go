package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/command"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/config"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/helper"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/persona"
	"github.com/speedyfriend433/Swifile-FileManager-2-Swift/internal/version"
)

func newLocateCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Print the elevated root prefix",
		Long: `Print the prefix under which the elevated environment lives.

"/" is printed for the unprefixed system root. Exits 1 when no root is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}

			prefix, ok := app.locator().Locate()
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "root not found")
				return exitCode(1)
			}
			if prefix == "" {
				prefix = "/"
			}
			fmt.Fprintln(cmd.OutOrStdout(), prefix)
			return nil
		},
	}
}

func newSpawnCmd(app *cli) *cobra.Command {
	var (
		uid    uint32
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "spawn [--uid N] [--prefix P] -- <command> [args...]",
		Short: "Run a command under a persona inside the elevated root",
		Long: `Run an absolute command path under the numeric identity N, rooted at
prefix P. Without --prefix the root is located. The child gets only a PATH
variable and swifilectl exits with its code.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}

			if !cmd.Flags().Changed("prefix") {
				located, ok := app.locator().Locate()
				if !ok {
					return persona.ErrRootNotFound
				}
				prefix = located
			}

			res, err := persona.NewLauncher(app.logger).Spawn(cmd.Context(), persona.Request{
				Command:    args[0],
				Args:       args[1:],
				UID:        uid,
				RootPrefix: prefix,
				Stdin:      cmd.InOrStdin(),
				Stdout:     cmd.OutOrStdout(),
				Stderr:     cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			return childExit(cmd, res)
		},
	}

	cmd.Flags().Uint32Var(&uid, "uid", persona.RootUID, "numeric identity for the child (uid and gid)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "root prefix; \"/\" is the unprefixed root")
	return cmd
}

func newShellCmd(app *cli) *cobra.Command {
	var asRoot bool

	cmd := &cobra.Command{
		Use:   "shell [--root] <command>",
		Short: "Run a command string through the root's shell",
		Long: `Run "<shell> -c <command>" inside the located root, as root with --root
and as the sandbox identity otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}

			sh := persona.NewShell(persona.NewLauncher(app.logger), app.locator())
			sh.Path = app.cfg.Locator.ShellPath
			sh.UserUID = uint32(app.cfg.SandboxUID)

			res, err := sh.Run(cmd.Context(), strings.Join(args, " "), asRoot, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return childExit(cmd, res)
		},
	}

	cmd.Flags().BoolVar(&asRoot, "root", false, "run as root instead of the sandbox identity")
	return cmd
}

func newHelperCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "helper <action> [operands...]",
		Short: "Run the root helper with a file operation",
		Long: `Validate the action and operands with the helper grammar, run the root
helper as root inside the located root and print its output.

Actions: delete|del|d, list|l, create|c, createdir|md, move|mv, copy|cp,
getuid|guid, getgid|gid. Move and copy take source/destination pairs.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			command.ProgramName = programName + " helper"
			inv, err := command.ParseWithUsage(append([]string{programName}, args...), cmd.ErrOrStderr())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
				return exitCode(helper.ExitCodeFor(err))
			}

			if err := app.load(cmd); err != nil {
				return err
			}

			client := helper.NewClient(persona.NewLauncher(app.logger), app.locator(), app.fs, app.cfg.HelperPath, app.logger)
			resp, err := client.Execute(cmd.Context(), inv)
			if err != nil {
				return err
			}

			for _, line := range resp.Lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			if resp.Stderr != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), resp.Stderr)
			}
			if !resp.Success() {
				return exitCode(resp.ExitCode)
			}
			return nil
		},
	}
}

func newConfigCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var (
		path  string
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = app.configPath
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "destination (default: --config)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info(programName))
		},
	}
}

// childExit maps a child result to the swifilectl exit status.
func childExit(cmd *cobra.Command, res *persona.Result) error {
	if res.Signal != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "terminated by %s\n", res.Signal)
		return exitCode(1)
	}
	if res.ExitCode != 0 {
		return exitCode(res.ExitCode)
	}
	return nil
}
