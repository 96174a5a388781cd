// Package main is the entry point for the crucible CLI.
package main

import "gooze.dev/pkg/crucible/cmd"

func main() {
	cmd.Execute()
}
