// qmod init <target>, qmod new <path>
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/qmod/internal/msg"
	"github.com/spf13/cobra"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "qmod"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

// initIn lays out Source/ with a target and a Main entry point in dir. With
// lib set, Main gets a Core static library to depend on.
func initIn(dir, name string, lib bool) {
	src := filepath.Join(dir, "Source")
	mkdir(src, "Main", "Private")
	mkdir(src, "Main", "Public")

	// Source/<name>.target.toml
	writefile(`[target]
type = "program"
build_all_modules = true
arguments = ["-Wall", "-finput-charset=UTF-8", "-fexec-charset=UTF-8"]

# conditional sections are expressions over target_os, target_arch,
# build_type, gcc_version, gxx_version and environ
[target."target_os == 'windows'"]
arguments = ["-DUNICODE"]

# [profile.release]
# opt-level = 3
# defines = ["__RELEASE__"]
`, src, name+".target.toml")

	if lib {
		mkdir(src, "Core", "Private")
		mkdir(src, "Core", "Public")
		mkdir(src, "Core", "Tests")

		writefile(`[module]
type = "static_lib"
enable_binary_lib_prefix = true
enable_tests = true
`, src, "Core", "Core.build.toml")

		writefile(`#pragma once

const char *hello_world();
`, src, "Core", "Public", "Core.hpp")

		writefile(`#include "Core.hpp"

const char *hello_world() {
    return "Hello, World!";
}
`, src, "Core", "Private", "Core.cpp")

		writefile(`#include "Core.hpp"

#include <cstring>

int main() {
    return std::strcmp(hello_world(), "Hello, World!") == 0 ? 0 : 1;
}
`, src, "Core", "Tests", "CoreTest.cpp")

		writefile(`[module]
type = "entry_point"
depends = ["Core"]
`, src, "Main", "Main.build.toml")

		writefile(`#include "Core.hpp"

#include <cstdio>

int main() {
    std::puts(hello_world());
    return 0;
}
`, src, "Main", "Private", "main.cpp")
	} else {
		writefile(`[module]
type = "entry_point"
`, src, "Main", "Main.build.toml")

		writefile(`#include <cstdio>

int main() {
    std::puts("Hello, World!");
    return 0;
}
`, src, "Main", "Private", "main.cpp")
	}

	// .gitignore
	writefile(`Build/
compile_commands.json
`, dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("You can now do %s to build, or %s to build and run.\n",
		color.HiCyanString(programName+" -C "+dir), color.HiCyanString(programName+" -C "+dir+" run "+name))
}

var library bool

var initCmd = &cobra.Command{
	Use:   "init <target>",
	Short: "Create a new source tree in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0], library)
	},
}

var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Create a new source tree in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]), library)
	},
}

func init() {
	// qmod init subcommand
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&library, "lib", "l", false, "Add a static library module with tests")

	// qmod new subcommand
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVarP(&library, "lib", "l", false, "Add a static library module with tests")
}
