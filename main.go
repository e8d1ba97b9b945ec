package main

import "github.com/qobs-build/qmod/cmd"

func main() {
	cmd.Execute()
}
