package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledoux/bakehouse/internal/importer"
)

func kindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the registered import kinds and their fields",
		Run: func(cmd *cobra.Command, args []string) {
			for _, key := range importer.Kinds() {
				def, _ := importer.Lookup(key)
				fmt.Printf("%s (%s)\n", def.Key, def.Label)
				for _, f := range def.Fields {
					req := ""
					if f.Required {
						req = " (required)"
					}
					fmt.Printf("  %-16s %q%s\n", f.DBField, f.DisplayName, req)
				}
			}
		},
	}
}
