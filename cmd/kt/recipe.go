package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krakentools/kt/pkg/recipe"
	"github.com/krakentools/kt/pkg/store"
	"github.com/krakentools/kt/pkg/tui"
)

func newRecipeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage stored recipes",
	}
	cmd.AddCommand(newRecipeListCommand())
	cmd.AddCommand(newRecipeAddCommand())
	cmd.AddCommand(newRecipeEditCommand())
	cmd.AddCommand(newRecipeDeleteCommand())
	cmd.AddCommand(newRecipeRenderCommand())
	return cmd
}

func newRecipeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			names, err := p.Recipes().List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No recipes stored yet.")
				return nil
			}
			for _, name := range names {
				fmt.Printf("- %s\n", name)
			}
			return nil
		},
	}
}

func newRecipeAddCommand() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a new recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			p, err := newPipeline()
			if err != nil {
				return err
			}
			if exists, err := p.Recipes().Exists(name); err != nil {
				return err
			} else if exists {
				return fmt.Errorf("recipe %q already exists", name)
			}

			content, err := seedContent(filePath, recipe.DefaultDocument, ".yaml")
			if err != nil {
				return err
			}
			if strings.TrimSpace(content) == "" {
				return errors.New("recipe content cannot be empty")
			}
			if err := p.Recipes().Put(name, content); err != nil {
				return err
			}
			success("Recipe %q created.", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "seed the recipe definition from a file")
	return cmd
}

func newRecipeEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit NAME",
		Short: "Edit an existing recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			p, err := newPipeline()
			if err != nil {
				return err
			}
			content, err := p.Recipes().Fetch(name)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("recipe %q does not exist", name)
				}
				return err
			}

			updated, err := tui.NewEditor().Edit(content, ".yaml")
			if err != nil {
				if errors.Is(err, tui.ErrNotSaved) {
					return errors.New("editor closed without saving changes")
				}
				return err
			}
			if updated == content {
				fmt.Println("No changes detected; recipe left untouched.")
				return nil
			}
			if err := p.Recipes().Update(name, updated); err != nil {
				return err
			}
			success("Recipe %q updated.", name)
			return nil
		},
	}
}

func newRecipeDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			p, err := newPipeline()
			if err != nil {
				return err
			}
			if exists, err := p.Recipes().Exists(name); err != nil {
				return err
			} else if !exists {
				return fmt.Errorf("recipe %q does not exist", name)
			}

			if !yes {
				confirmed, err := p.UI().Confirm(fmt.Sprintf("Delete recipe %q?", name), false)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted.")
					return nil
				}
			}
			if err := p.Recipes().Delete(name); err != nil {
				return err
			}
			success("Recipe %q deleted.", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newRecipeRenderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "render NAME",
		Short: "Execute a recipe's actions in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			return p.RunRecipe(args[0])
		},
	}
}
