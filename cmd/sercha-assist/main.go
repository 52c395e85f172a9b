// Command sercha-assist answers questions from a folder of local documents.
package main

import (
	"os"

	"github.com/custodia-labs/sercha-assist/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
