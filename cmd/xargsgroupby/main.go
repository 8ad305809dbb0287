// Command xargsgroupby is the entry point for the xargs-groupby CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jlrickert/xargs-groupby/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xargs-groupby: %v\n", err)
		os.Exit(1)
	}
}
