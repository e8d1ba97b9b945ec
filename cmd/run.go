// qmod run <target> [args...]
package cmd

import (
	"github.com/spf13/cobra"
)

func doRun(cmd *cobra.Command, args []string) {
	target := args[0]
	args = args[1:] // other arguments will be passed to program
	if err := newBuilder().BuildAndRun(target, args); err != nil {
		fail(err)
	}
}

var runCmd = &cobra.Command{
	Use:   "run <target> [args...]",
	Short: "Build a target and run its entry point",
	Long:  `Build a target and run the executable of its entry_point module. Arguments after the target are passed to the program.`,
	Args:  cobra.MinimumNArgs(1),
	Run:   doRun,
}

func init() {
	// qmod run subcommand
	rootCmd.AddCommand(runCmd)
	addBuildFlags(runCmd)
	runCmd.Flags().SetInterspersed(false)
}
