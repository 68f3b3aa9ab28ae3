package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krakentools/kt/pkg/store"
	"github.com/krakentools/kt/pkg/tui"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			names, err := p.Templates().List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No templates stored yet.")
				return nil
			}
			for _, name := range names {
				fmt.Printf("- %s\n", name)
			}
			return nil
		},
	}
}

func newAddCommand() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a new template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			p, err := newPipeline()
			if err != nil {
				return err
			}
			if exists, err := p.Templates().Exists(name); err != nil {
				return err
			} else if exists {
				return fmt.Errorf("template %q already exists", name)
			}

			content, err := seedContent(filePath, "", ".tmpl")
			if err != nil {
				return err
			}
			if strings.TrimSpace(content) == "" {
				return errors.New("template content cannot be empty")
			}
			if err := p.Templates().Put(name, content); err != nil {
				return err
			}
			success("Template %q created.", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "seed the template content from a file")
	return cmd
}

func newEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit NAME",
		Short: "Edit an existing template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			p, err := newPipeline()
			if err != nil {
				return err
			}
			content, err := p.Templates().Fetch(name)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("template %q does not exist", name)
				}
				return err
			}

			updated, err := tui.NewEditor().Edit(content, ".tmpl")
			if err != nil {
				if errors.Is(err, tui.ErrNotSaved) {
					return errors.New("editor closed without saving changes")
				}
				return err
			}
			if updated == content {
				fmt.Println("No changes detected; template left untouched.")
				return nil
			}
			if err := p.Templates().Update(name, updated); err != nil {
				return err
			}
			success("Template %q updated.", name)
			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			p, err := newPipeline()
			if err != nil {
				return err
			}
			if exists, err := p.Templates().Exists(name); err != nil {
				return err
			} else if !exists {
				return fmt.Errorf("template %q does not exist", name)
			}

			if !yes {
				confirmed, err := p.UI().Confirm(fmt.Sprintf("Delete template %q?", name), false)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted.")
					return nil
				}
			}
			if err := p.Templates().Delete(name); err != nil {
				return err
			}
			success("Template %q deleted.", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newRenderCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render NAME",
		Short: "Render a template, collecting its variables in your editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			rendered, err := p.RenderStored(args[0], nil)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Println(rendered)
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return fmt.Errorf("create output directory for %q: %w", output, err)
			}
			if err := os.WriteFile(output, []byte(rendered), 0o644); err != nil {
				return fmt.Errorf("write output to %q: %w", output, err)
			}
			success("Rendered template saved to %q.", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the rendered content to this file")
	return cmd
}

// seedContent reads initial content from a file when given, otherwise opens
// an editor session seeded with seed.
func seedContent(filePath, seed, extension string) (string, error) {
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read %q: %w", filePath, err)
		}
		return string(data), nil
	}
	content, err := tui.NewEditor().Edit(seed, extension)
	if err != nil {
		if errors.Is(err, tui.ErrNotSaved) {
			return "", errors.New("editor closed without saving content")
		}
		return "", err
	}
	return content, nil
}
