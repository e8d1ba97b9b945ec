// qmod [targets...], qmod build [targets...]
package cmd

import (
	"fmt"
	"os"

	"github.com/qobs-build/qmod/internal/builder"
	"github.com/qobs-build/qmod/internal/msg"
	"github.com/spf13/cobra"
)

var (
	flagRoot              string
	flagDryRun            bool
	flagNoCache           bool
	flagTests             bool
	flagFormatCheck       bool
	flagNoCompileCommands bool
	flagBuildType         EnumValue = NewEnumValue("Debug", map[string]string{
		"Release":     "Optimized, no debug information",
		"Debug":       "Debug information, no optimizations (default)",
		"Development": "Debug information with light optimizations",
	})
)

// newBuilder creates a builder from the command line flags
func newBuilder() *builder.Builder {
	buildType, err := builder.ParseBuildType(flagBuildType.Value())
	if err != nil {
		msg.Fatal("%v", err)
	}
	b, err := builder.NewBuilder(builder.Options{
		Root:              flagRoot,
		BuildType:         buildType,
		DryRun:            flagDryRun,
		NoCache:           flagNoCache,
		Tests:             flagTests,
		FormatCheck:       flagFormatCheck,
		NoCompileCommands: flagNoCompileCommands,
		Toolchain:         builder.DetectToolchain(),
	})
	if err != nil {
		msg.Fatal("%v", err)
	}
	return b
}

// fail exits with the status that belongs to the kind of build error
func fail(err error) {
	msg.Exit(builder.ExitCode(err), "%v", err)
}

func doBuild(cmd *cobra.Command, args []string) {
	if _, err := newBuilder().Build(args...); err != nil {
		fail(err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "qmod [targets...]",
	Short: "Module-oriented incremental build orchestrator for C/C++",
	Long: `Module-oriented incremental build orchestrator for C/C++.
Builds every module of the given targets (all targets found in Source/ when
none are given) in dependency order.`,
	Args: cobra.ArbitraryArgs,
	Run:  doBuild,
}

var buildCmd = &cobra.Command{
	Use:   "build [targets...]",
	Short: "Build targets",
	Long:  `Build targets. If no target is given, builds every target found in Source/`,
	Args:  cobra.ArbitraryArgs,
	Run:   doBuild,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRoot, "root", "C", ".", "Directory holding Source/ and Build/")
	rootCmd.PersistentFlags().VarP(&flagBuildType, "build-type", "t", "Build type, one of "+flagBuildType.HelpString())
	rootCmd.RegisterFlagCompletionFunc("build-type", flagBuildType.CompletionFunc())

	addBuildFlags(rootCmd)

	// qmod build subcommand
	rootCmd.AddCommand(buildCmd)
	addBuildFlags(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Only generate commands and compile_commands.json, don't compile or link")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Recompile every source file regardless of timestamps")
	cmd.Flags().BoolVar(&flagTests, "tests", false, "Build and run the tests of modules that enable them")
	cmd.Flags().BoolVar(&flagFormatCheck, "format-check", false, "Check C++ sources with clang-format before compiling")
	cmd.Flags().BoolVar(&flagNoCompileCommands, "no-compile-commands", false, "Don't update compile_commands.json")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
