package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gooze.dev/pkg/crucible/internal/domain"
	m "gooze.dev/pkg/crucible/internal/model"
)

var listShardFlag string

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the files of the mutant plan and their mutant counts",
		Long:  listLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			mutants, err := mutantStore.LoadMutants(m.Path(viper.GetString(mutantsFileKey)))
			if err != nil {
				return err
			}

			shardIndex, totalShards := parseShardFlag(listShardFlag)

			return newCampaign(domain.CampaignDeps{Store: reportStore, UI: ui}).
				Estimate(ctx, mutants, domain.CampaignOptions{ShardIndex: shardIndex, TotalShards: totalShards})
		},
	}

	cmd.Flags().StringVarP(&listShardFlag, "shard", "s", "", "only list the mutants of shard INDEX/TOTAL")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
