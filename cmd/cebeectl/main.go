// Package main is the entry point for cebeectl, the CeBee Predict admin CLI.
package main

import (
	"os"

	"github.com/cebeepredict/admin/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
