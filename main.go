// Package main is the entry point for the ngraph CLI.
package main

import "ngraph.dev/pkg/ngraph/cmd"

func main() {
	cmd.Execute()
}
