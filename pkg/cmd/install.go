package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gitgem/gitgem/pkg/config"
	"github.com/gitgem/gitgem/pkg/installer"
	"github.com/gitgem/gitgem/pkg/project"
	"github.com/gitgem/gitgem/pkg/source"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install dependencies from gitgem.toml",
		Long: `Mirrors every git dependency listed in gitgem.toml, checks out its
resolved revision and records the result in gitgem.lock. Dependencies whose
entry is unchanged keep the revision already in the lockfile.`,
		Args: cobra.NoArgs,
		RunE: runInstallAll,
	}
}

func newAddCmd() *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add NAME LOCATOR[#REF]",
		Short: "Add and install a dependency",
		Long: `Adds a dependency to gitgem.toml and installs it.

LOCATOR is a git URL, an scp-style address or a path to a repository, with an
optional #REF naming a branch, tag or commit. A path starting with ./ or ../
that is not a git repository is used in place as an installed directory.`,
		Args: cobra.ExactArgs(2),
		RunE: runAdd,
	}

	addCmd.Flags().Bool("submodules", false, "initialize submodules in the checkout")
	return addCmd
}

// projectPaths returns the project directory, manifest path and lockfile
// path of the project enclosing the working directory.
func projectPaths() (projectDir, manifestPath, lockPath string, err error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", "", "", fmt.Errorf("getting working directory: %w", err)
	}
	projectDir, err = project.FindRoot(wd)
	if err != nil {
		return "", "", "", err
	}
	return projectDir, filepath.Join(projectDir, project.ManifestFile), filepath.Join(projectDir, config.LockFileName), nil
}

func runInstallAll(cmd *cobra.Command, args []string) error {
	_, manifestPath, lockPath, err := projectPaths()
	if err != nil {
		return err
	}

	m, err := config.LoadFile(manifestPath)
	if err != nil {
		return err
	}

	existing, err := config.LoadLockFile(lockPath)
	if err != nil {
		return fmt.Errorf("loading lockfile: %w", err)
	}

	inst, err := newInstaller()
	if err != nil {
		return err
	}

	lf, results, err := inst.InstallAll(cmd.Context(), m, existing)
	if err != nil {
		return err
	}

	if err := config.SaveLockFile(lockPath, lf); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}

	var specs int
	for _, r := range results {
		specs += len(r.Specs)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed %d dependencies providing %d specification(s)\n", len(results), specs)
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	name, locator := args[0], args[1]

	_, manifestPath, lockPath, err := projectPaths()
	if err != nil {
		return err
	}

	dep, err := source.ParseLocator(locator, isRepository)
	if err != nil {
		return err
	}
	dep.Submodules, err = cmd.Flags().GetBool("submodules")
	if err != nil {
		return err
	}
	if err := dep.Validate(name); err != nil {
		return err
	}

	m, err := config.LoadFile(manifestPath)
	if err != nil {
		return err
	}
	if _, ok := m.Dependencies[name]; ok {
		return fmt.Errorf("dependency %q already exists in %s", name, project.ManifestFile)
	}

	inst, err := newInstaller()
	if err != nil {
		return err
	}

	res, err := inst.Install(cmd.Context(), name, dep, nil)
	if err != nil {
		return err
	}

	if m.Dependencies == nil {
		m.Dependencies = make(map[string]config.Dependency)
	}
	m.Dependencies[name] = dep
	if err := config.SaveFile(manifestPath, m); err != nil {
		return fmt.Errorf("saving %s: %w", manifestPath, err)
	}

	lf, err := config.LoadLockFile(lockPath)
	if err != nil {
		return fmt.Errorf("loading lockfile: %w", err)
	}
	lf.Packages = upsertLockEntry(lf.Packages, installer.LockEntry(name, dep, *res))
	if err := config.SaveLockFile(lockPath, lf); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %q from %s\n", name, res.Source)
	for _, s := range res.Specs {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", s.FullName())
	}
	return nil
}

// upsertLockEntry adds or replaces the entry with the same name.
func upsertLockEntry(entries []config.LockedPackage, entry config.LockedPackage) []config.LockedPackage {
	for i, e := range entries {
		if e.Name == entry.Name {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}

// isRepository reports whether path is a git working tree or bare
// repository.
func isRepository(path string) bool {
	for _, marker := range []string{".git", "HEAD"} {
		if _, err := os.Stat(filepath.Join(path, marker)); err == nil {
			return true
		}
	}
	return false
}
