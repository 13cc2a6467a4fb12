package cmd

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/gitgem/gitgem/pkg/config"
)

func newRemoveCmd() *cobra.Command {
	removeCmd := &cobra.Command{
		Use:   "remove [NAME...]",
		Short: "Remove dependencies",
		Long: `Removes dependencies from gitgem.toml and the lockfile. Without names, prompts
for the dependencies to remove. Mirrors and checkouts stay in the store.`,
		RunE: runRemove,
	}

	removeCmd.Flags().Bool("all", false, "Remove all dependencies without prompting")
	return removeCmd
}

func runRemove(cmd *cobra.Command, args []string) error {
	_, manifestPath, lockPath, err := projectPaths()
	if err != nil {
		return err
	}

	m, err := config.LoadFile(manifestPath)
	if err != nil {
		return err
	}

	if len(m.Dependencies) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to remove")
		return nil
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	names := config.SortedNames(m.Dependencies)
	var selected []string
	switch {
	case all:
		selected = names
	case len(args) > 0:
		for _, name := range args {
			if _, ok := m.Dependencies[name]; !ok {
				return fmt.Errorf("dependency %q not found in %s", name, manifestPath)
			}
		}
		selected = args
	default:
		if selected, err = promptDependencies(names); err != nil {
			return err
		}
	}

	if len(selected) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing selected")
		return nil
	}

	for _, name := range selected {
		delete(m.Dependencies, name)
	}
	if err := config.SaveFile(manifestPath, m); err != nil {
		return fmt.Errorf("saving %s: %w", manifestPath, err)
	}

	lf, err := config.LoadLockFile(lockPath)
	if err != nil {
		return fmt.Errorf("loading lockfile: %w", err)
	}
	lf.Packages = slices.DeleteFunc(lf.Packages, func(p config.LockedPackage) bool {
		return slices.Contains(selected, p.Name)
	})
	if err := config.SaveLockFile(lockPath, lf); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}

	for _, name := range selected {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", name)
	}
	return nil
}

// promptDependencies uses huh to present a multi-select of dependencies.
func promptDependencies(names []string) ([]string, error) {
	options := make([]huh.Option[string], len(names))
	for i, name := range names {
		options[i] = huh.NewOption(name, name)
	}

	var selected []string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select dependencies to remove").
				Options(options...).
				Value(&selected),
		),
	).Run()
	if err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}

	return selected, nil
}
