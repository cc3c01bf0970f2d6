package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/topiary"
)

var (
	validateMeta   string
	validatePath   string
	validateCustom []string
)

var validateCmd = &cobra.Command{
	Use:   "validate files...",
	Short: "Validate YAML files against their specs",
	Long: `Validates each file against its companion spec (<base>.meta.yaml, discovered
next to the file or in the --path directories), printing pass/fail per file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(args)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateMeta, "meta", "",
		"Spec file to use instead of discovery")
	validateCmd.Flags().StringVar(&validatePath, "path", "",
		"Colon-separated list of directories where spec files are searched")
	validateCmd.Flags().StringArrayVar(&validateCustom, "custom", nil,
		"Customization file to apply before validation (repeatable)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(files []string) error {
	opts := []topiary.Option{topiary.WithLogger(newLogger())}
	if validateMeta != "" {
		opts = append(opts, topiary.WithSpecFile(validateMeta))
	}
	if validatePath != "" {
		opts = append(opts, topiary.WithSpecDirs(strings.Split(validatePath, ":")...))
	}
	if len(validateCustom) > 0 {
		opts = append(opts, topiary.WithCustomizations(validateCustom...))
	}

	failed := 0
	for _, fn := range files {
		if _, err := topiary.Load(fn, opts...); err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed++
			continue
		}
		fmt.Printf("%s looks good!\n", fn)
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed validation", failed)
	}
	return nil
}
