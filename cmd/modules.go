// qmod modules <target>
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func doModules(cmd *cobra.Command, args []string) {
	b := newBuilder()
	reg, err := b.LoadRegistry()
	if err != nil {
		fail(err)
	}
	order, err := b.Plan(args[0])
	if err != nil {
		fail(err)
	}
	for i, name := range order {
		mod := reg.Modules[name]
		fmt.Printf("%3d. %s %s", i+1, color.HiCyanString(name), color.HiBlackString("(%s)", mod.Binary))
		if len(mod.Depends) > 0 {
			fmt.Printf(" <- %v", mod.Depends)
		}
		fmt.Println()
	}
}

var modulesCmd = &cobra.Command{
	Use:   "modules <target>",
	Short: "Print the build order of a target",
	Args:  cobra.ExactArgs(1),
	Run:   doModules,
}

func init() {
	// qmod modules subcommand
	rootCmd.AddCommand(modulesCmd)
}
