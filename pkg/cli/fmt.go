package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/funvibe/regionck/internal/lexer"
	"github.com/funvibe/regionck/internal/parser"
	"github.com/funvibe/regionck/internal/pipeline"
	"github.com/funvibe/regionck/internal/prettyprinter"
)

func (c *CLI) newFmtCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt FILE...",
		Short: "Print files in canonical layout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFmt(args, write)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")
	return cmd
}

func (c *CLI) runFmt(paths []string, write bool) error {
	broken := false
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		initialContext := pipeline.NewPipelineContext(string(src))
		initialContext.FilePath = path
		initialContext.Logger = c.logger
		final := pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(initialContext)
		if final.HasErrors() {
			for _, e := range final.Errors {
				fmt.Fprintln(c.stderr, e.Error())
			}
			broken = true
			continue
		}

		out := prettyprinter.PrintProgram(final.AstRoot)
		if !write {
			fmt.Fprint(c.stdout, out)
			continue
		}
		if out == string(src) {
			continue
		}
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		c.logger.Info("formatted", "file", path)
	}
	if broken {
		return errFindings
	}
	return nil
}
