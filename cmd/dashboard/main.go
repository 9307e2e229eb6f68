// Command dashboard runs the Qargo client dashboard.
package main

import (
	"os"

	"github.com/qargo/dashboard/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
