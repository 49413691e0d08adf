// Package cli is the regionck command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/prettyprinter"
)

// Exit codes.
const (
	ExitSuccess  = 0
	ExitFindings = 1 // violations or front-end errors in the checked files
	ExitInternal = 2 // I/O, configuration or cache failures
)

// errFindings makes a command exit with ExitFindings without printing
// anything more.
var errFindings = errors.New("findings reported")

// CLI holds the command-line state.
type CLI struct {
	rootCmd  *cobra.Command
	settings *config.Settings
	logger   *slog.Logger

	stdout io.Writer
	stderr io.Writer

	// Global flags
	configPath string
	verbose    bool
	color      string
	debug      bool
	logFormat  string
	jobs       int
}

func New() *CLI {
	c := &CLI{stdout: os.Stdout, stderr: os.Stderr}
	c.rootCmd = c.newRootCmd()
	return c
}

// SetOutput redirects report and log output, for tests.
func (c *CLI) SetOutput(stdout, stderr io.Writer) {
	c.stdout = stdout
	c.stderr = stderr
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
}

// SetArgs overrides os.Args[1:], for tests.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// Execute runs the command and returns the process exit code.
func (c *CLI) Execute() (code int) {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(c.stderr, "regionck: internal error: %v\n", r)
			fmt.Fprintln(c.stderr, "This is a bug. Please report it.")
			code = ExitInternal
		}
	}()

	err := c.rootCmd.Execute()
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errFindings):
		return ExitFindings
	default:
		fmt.Fprintf(c.stderr, "regionck: %v\n", err)
		return ExitInternal
	}
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regionck",
		Short: "Check region outlives requirements of closures",
		Long: `regionck checks .rgn programs: it collects the outlives obligations of
every function body and its closures, propagates closure requirements to
the enclosing function and proves them against its where-clauses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./regionck.yaml or ~/.regionck/regionck.yaml)")
	cmd.PersistentFlags().BoolVar(&c.verbose, "verbose", false, "render regions as '_#Nr")
	cmd.PersistentFlags().StringVar(&c.color, "color", "", "colour output: auto, always or never")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "debug logs on stderr")
	cmd.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "log format: text or json")
	cmd.PersistentFlags().IntVarP(&c.jobs, "jobs", "j", 0, "parallel jobs (default: one per CPU)")

	cmd.AddCommand(c.newCheckCmd())
	cmd.AddCommand(c.newSnapshotCmd())
	cmd.AddCommand(c.newFmtCmd())
	cmd.AddCommand(c.newCacheCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig(cmd *cobra.Command) error {
	s, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	// Override with flags
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		s.Verbose = c.verbose
	}
	if c.color != "" {
		s.Color = c.color
	}
	if c.logFormat != "" {
		s.Logging.Format = c.logFormat
	}
	if c.debug {
		s.Logging.Level = "debug"
	}
	if c.jobs > 0 {
		s.Jobs = c.jobs
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if _, err := prettyprinter.ParseColorMode(s.Color); err != nil {
		return err
	}

	c.settings = s
	c.logger = newLogger(c.stderr, s.Logging)
	slog.SetDefault(c.logger)
	return nil
}

func newLogger(w io.Writer, s config.LoggingSettings) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(s.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}
	if s.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
