package main

import (
	"fmt"
	"os"

	"github.com/nicktill/salesagg/pkg/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "salesagg:", err)
		os.Exit(1)
	}
}
