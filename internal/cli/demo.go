package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/forkview/pkg/pipeline"
	"github.com/matzehuels/forkview/pkg/scenario"
)

// demoScenario grows a main chain and forks it three times, once from the
// head and twice from inside the chain.
const demoScenario = `
name = "Forkview Demo"
description = "A five-block main chain with three forks."

[[step]]
action = "select"
block = -1
[[step]]
action = "append"
[[step]]
action = "select"
block = -1
[[step]]
action = "append"
[[step]]
action = "select"
block = -1
[[step]]
action = "append"
[[step]]
action = "select"
block = -1
[[step]]
action = "append"

# Fork 1 from block 2, then grow it twice.
[[step]]
action = "select"
block = 2
[[step]]
action = "fork"
[[step]]
action = "select"
branch = 1
block = -1
[[step]]
action = "append"
[[step]]
action = "select"
branch = 1
block = -1
[[step]]
action = "append"

# Fork 2 from the main head.
[[step]]
action = "select"
block = -1
[[step]]
action = "fork"

# Fork 3 from block 1.
[[step]]
action = "select"
block = 1
[[step]]
action = "fork"
`

// demoInput is the base name demo artifacts are written under.
const demoInput = "forkview-demo"

// demoCommand creates the demo command.
func (c *CLI) demoCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Render a built-in example with several forks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormats(parseFormats(flags.formats)); err != nil {
				return err
			}
			sc, err := scenario.Parse([]byte(demoScenario))
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := c.runScenario(cmd.Context(), cfg, sc, demoInput, flags); err != nil {
				return err
			}
			printNewline()
			printNextStep("Explore it interactively", appName+" explore")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
