// importctl drives the import pipeline from the command line, for bulk
// backfills and for rehearsing an import before handing it to the operators.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "importctl",
		Short:   "Back-office import pipeline control",
		Version: version,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(kindsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
