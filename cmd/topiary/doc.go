package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/topiary/pkg/docgen"
)

var (
	docPath   string
	docOutput string
)

var docCmd = &cobra.Command{
	Use:   "doc dirs...",
	Short: "Render spec documentation as Markdown",
	Long: `Generates prose documentation from the *.meta.yaml files in each directory:
the base type catalogue, named types found on --path, and every spec's root node.
Writes one Markdown file per directory with --output, otherwise renders to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoc(args)
	},
}

func init() {
	docCmd.Flags().StringVar(&docPath, "path", "",
		"Colon-separated list of directories where *.type.yaml files are searched")
	docCmd.Flags().StringVar(&docOutput, "output", "",
		"Directory to write one <dir>.md file per input directory")
	rootCmd.AddCommand(docCmd)
}

func runDoc(dirs []string) error {
	var typeDirs []string
	if docPath != "" {
		typeDirs = strings.Split(docPath, ":")
	}

	for _, dir := range dirs {
		product := filepath.Base(filepath.Clean(dir))
		var md strings.Builder
		if err := docgen.New(&md, product).Render(dir, typeDirs); err != nil {
			return err
		}

		if docOutput != "" {
			outfn := filepath.Join(docOutput, product+".md")
			if err := os.WriteFile(outfn, []byte(md.String()), 0o644); err != nil {
				return err
			}
			continue
		}
		if err := printMarkdown(md.String()); err != nil {
			return err
		}
	}
	return nil
}

// printMarkdown renders through glamour when stdout is an interactive
// terminal with color support, and prints raw Markdown otherwise.
func printMarkdown(md string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || termenv.EnvNoColor() {
		fmt.Print(md)
		return nil
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || width > 120 {
		width = 120
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark background
		glamour.WithWordWrap(width),
	)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(out)
	return nil
}
