package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/topiary"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of topiary",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("topiary version %s\n", strings.TrimSpace(topiary.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
