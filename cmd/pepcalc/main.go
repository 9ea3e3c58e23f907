// pepcalc - Peptide mass, fragment and decoy calculator
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/pepcalc/cmd/pepcalc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
