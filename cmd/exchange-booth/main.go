package main

import (
	"fmt"
	"os"

	"github.com/code-payments/exchange-booth/cmd/exchange-booth/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
