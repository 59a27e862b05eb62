// Package main is the entry point for the mutaug CLI.
package main

import "gooze.dev/pkg/mutaug/cmd"

func main() {
	cmd.Execute()
}
