package commands

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/corrsweep/am"
	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/sweep"
)

// CatalogCmd lists what a sweep iterates over
var CatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List corruptions, severities and evaluator backends",
	Long: `List the corruption catalog in execution order, the severity range,
and every evaluator backend (built-in and from [evaluators.<label>] config).
The active evaluator is marked with *.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := renderCatalog(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// renderCatalog renders the catalog and evaluator tables
func renderCatalog(cfg *am.Config) (string, error) {
	var b strings.Builder

	corruptions := pterm.TableData{{"#", "Corruption"}}
	for i, c := range sweep.DefaultCatalog() {
		corruptions = append(corruptions, []string{strconv.Itoa(i + 1), string(c)})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(corruptions).Srender()
	if err != nil {
		return "", errors.Wrap(err, "failed to render catalog")
	}
	b.WriteString(table + "\n\n")

	var severities []string
	for _, s := range sweep.Severities() {
		severities = append(severities, strconv.Itoa(int(s)))
	}
	fmt.Fprintf(&b, "Severities: %s (%d invocations per evaluator)\n\n",
		strings.Join(severities, ", "), len(sweep.DefaultCatalog())*len(severities))

	all := sweep.Evaluators(cfg.Evaluators)
	evaluators := pterm.TableData{{"", "Evaluator", "Script", "Weights", "Mono", "Description"}}
	for _, label := range slices.Sorted(maps.Keys(all)) {
		ev := all[label]
		active := ""
		if label == cfg.Sweep.Evaluator {
			active = "*"
		}
		evaluators = append(evaluators, []string{
			active, ev.Label, ev.Script, ev.Weights, strconv.FormatBool(ev.EvalMono), ev.Description,
		})
	}
	table, err = pterm.DefaultTable.WithHasHeader().WithData(evaluators).Srender()
	if err != nil {
		return "", errors.Wrap(err, "failed to render evaluators")
	}
	b.WriteString(table + "\n")

	return b.String(), nil
}
