package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/krakentools/kt"
	"github.com/krakentools/kt/pkg/store"
)

var version = "0.1.0"

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "kt",
		Short: "Kraken Templates - stored templates and scripted recipes",
		Long: `kt stores parameterized text templates and multi-step recipes.
Rendering a template infers the variables it needs, opens your editor with a
skeleton to fill in, and substitutes embedded {>command<} blocks with shell
output. Recipes sequence template, command, and prompt actions with shared
variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newAddCommand())
	rootCmd.AddCommand(newEditCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newRecipeCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:")+" "+err.Error())
		os.Exit(1)
	}
}

// dataDir resolves where stores live: KT_HOME when set, otherwise the
// platform config directory.
func dataDir() (string, error) {
	if dir := os.Getenv("KT_HOME"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, "kt"), nil
}

func newPipeline() (*kt.Pipeline, error) {
	root, err := dataDir()
	if err != nil {
		return nil, err
	}
	templates, err := store.NewDir(filepath.Join(root, "templates"))
	if err != nil {
		return nil, err
	}
	recipes, err := store.NewDir(filepath.Join(root, "recipes"))
	if err != nil {
		return nil, err
	}
	return kt.New(kt.WithTemplates(templates), kt.WithRecipes(recipes)), nil
}

func success(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}
