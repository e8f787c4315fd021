package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/hashid"
	"github.com/matzehuels/forkview/pkg/scenario"
)

// verifyCommand creates the verify command.
func (c *CLI) verifyCommand() *cobra.Command {
	var skipHashes bool

	cmd := &cobra.Command{
		Use:   "verify [scenario.toml]",
		Short: "Replay a scenario and check chain integrity",
		Long: `Replay a scenario and check chain integrity.

Every branch is checked for broken previous-hash links, a valid genesis
block on the main chain and a fork point that is stored on an earlier
branch. A fork point whose blocks were discarded by a later append is
reported as an orphaned fork. Block hashes are recomputed unless
--skip-hashes is given.

The command exits non-zero when any issue is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			ctrl, err := c.replay(cmd.Context(), cfg, sc)
			if err != nil {
				return err
			}
			return verifySet(cmd.Context(), ctrl.Snapshot(), !skipHashes)
		},
	}

	cmd.Flags().BoolVar(&skipHashes, "skip-hashes", false, "check links only, do not recompute hashes")
	return cmd
}

// verifySet prints the integrity report for set.
func verifySet(ctx context.Context, set chain.BranchSet, hashes bool) error {
	var d hashid.Digester
	if hashes {
		d = hashid.SHA256{}
	}
	issues, err := chain.Verify(ctx, set, d)
	if err != nil {
		return err
	}

	if len(issues) == 0 {
		printSuccess("Chain is consistent")
		printStats(set.Len(), set.BlockCount(), 0, false)
		return nil
	}

	for _, issue := range issues {
		printWarning("%s", issue)
	}
	return fmt.Errorf("%d integrity issue(s) found", len(issues))
}
