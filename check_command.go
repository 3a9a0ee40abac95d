package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration, catalog, blacklist and synonym groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := ctx.loadPipeline()
			if err != nil {
				return err
			}

			source := ctx.configPath
			if source == "" {
				source = "(defaults)"
			}
			rows := [][]string{
				{"config", source},
				{"catalog", fmt.Sprintf("%s (%d tags, %d valid)", cfg.TagsPath(), p.Catalog().Len(), p.Catalog().ValidCount())},
				{"model", cfg.ModelPath()},
				{"threshold", strconv.FormatFloat(float64(p.Threshold()), 'f', -1, 32)},
				{"max tags", strconv.Itoa(p.MaxTags())},
				{"synonym groups", strconv.Itoa(p.Groups().Len())},
				{"folders", strings.Join(cfg.Folders, ", ")},
				{"batch", fmt.Sprintf("size %d, workers %d", cfg.Batch.Size, cfg.Batch.Workers)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))

			ruleRows := make([][]string, 0, len(p.Engine().Rules()))
			for _, r := range p.Engine().Rules() {
				ruleRows = append(ruleRows, []string{r.Stage().String(), r.Name()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Stage", "Rule"}, ruleRows, nil))
			return nil
		},
	}
}
