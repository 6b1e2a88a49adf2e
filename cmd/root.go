package main

import (
	"bufio"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/victornm/quizconv/internal/config"
	"github.com/victornm/quizconv/internal/errors"
	"github.com/victornm/quizconv/internal/server"
)

type app struct {
	prompt *prompter
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	config     server.Config
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		prompt: &prompter{in: bufio.NewReader(stdin), out: stderr},
		stdout: stdout,
		stderr: stderr,
	}

	root := &cobra.Command{
		Use:   "quizconv",
		Short: "Convert legacy quiz authoring files",
		Long: `quizconv reads the topic and question files of the legacy quiz authoring
tool and writes the questions as a script array, tagged markup, JSON, YAML or
TOML. It can also serve conversions over HTTP and gRPC.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug messages")

	root.AddCommand(a.convertCmd(), a.topicsCmd(), a.serveCmd())
	return root
}

func (a *app) setup(*cobra.Command, []string) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})))

	a.config = server.DefaultConfig()

	p := a.configPath
	if p == "" {
		p = os.Getenv("CONFIG_PATH")
	}
	if err := config.Load(p, &a.config); err != nil {
		return errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("%v", err))
	}
	return nil
}
