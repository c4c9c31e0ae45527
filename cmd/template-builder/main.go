// Command template-builder builds industry templates into UI components.
package main

import (
	"fmt"
	"os"

	"template-builder/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
