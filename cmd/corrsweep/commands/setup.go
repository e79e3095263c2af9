package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/corrsweep/am"
	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/internal/exitcode"
	"github.com/teranos/corrsweep/logger"
)

// Setup loads configuration and initializes the global logger before any command runs
func Setup(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if _, err := am.LoadFromFile(path); err != nil {
			return err
		}
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	jsonOutput := cfg.Output.Format == am.FormatJSON
	if f := cmd.Flags().Lookup("json"); f != nil && f.Value.String() == "true" {
		jsonOutput = true
	}

	logger.SetTheme(cfg.GetLogTheme())
	if err := logger.Initialize(jsonOutput, verbosity); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	return nil
}

// PrintError reports err with its hints. Exit-status carriers print nothing.
func PrintError(w io.Writer, err error) {
	var ee *exitcode.Error
	if err == nil || errors.As(err, &ee) {
		return
	}

	fmt.Fprintln(w, pterm.Error.Sprint(err.Error()))
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "  hint: %s\n", hint)
	}
}
