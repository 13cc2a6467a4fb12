package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/gitgem/gitgem/pkg/project"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new gitgem project",
		Long:  "Creates a gitgem.toml manifest and adds developer-local files to .gitignore.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
		// init does not need settings resolution; skip the root PersistentPreRunE.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	initCmd.Flags().String("name", "", "project name (prompted for when omitted)")
	initCmd.Flags().Bool("yes", false, "accept the inferred project name without prompting")
	return initCmd
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	if name == "" {
		name = project.InferName(wd)
		if !yes {
			if name, err = promptProjectName(name); err != nil {
				return err
			}
		}
	}

	if err := project.Init(wd, name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", project.ManifestFile)

	added, err := project.EnsureGitignore(wd, project.IgnoreEntries)
	if err != nil {
		return err
	}
	for _, entry := range added {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s to .gitignore\n", entry)
	}

	return nil
}

// promptProjectName uses huh to confirm or edit the inferred project name.
func promptProjectName(inferred string) (string, error) {
	name := inferred
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Value(&name).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("project name must not be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	return name, nil
}
