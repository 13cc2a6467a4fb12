package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitgem/gitgem/pkg/config"
	"github.com/gitgem/gitgem/pkg/source"
)

func newCacheCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "cache NAME",
		Short: "Create or refresh the mirror of a dependency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := gitSource(cmd, args[0])
			if err != nil {
				return err
			}
			if err := src.Cache(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), src.RepoCacheDir())
			return nil
		},
	}
	addSourceFlags(c)
	return c
}

func newRevParseCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "rev-parse NAME",
		Short: "Print the commit a dependency's reference resolves to",
		Long:  "Refreshes the mirror of the dependency, then resolves its reference to a full commit id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := gitSource(cmd, args[0])
			if err != nil {
				return err
			}
			if err := src.Cache(cmd.Context()); err != nil {
				return err
			}
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return err
			}

			var rev string
			if short {
				rev, err = src.DirShortref(cmd.Context())
			} else {
				rev, err = src.RevParse(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rev)
			return nil
		},
	}
	addSourceFlags(c)
	c.Flags().Bool("short", false, "print the abbreviated revision used for install directories")
	return c
}

func newCheckoutCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "checkout NAME",
		Short: "Check out a dependency's resolved revision",
		Long:  "Caches the dependency if needed and materializes its resolved revision in the install directory, which is printed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := gitSource(cmd, args[0])
			if err != nil {
				return err
			}
			if err := src.Checkout(cmd.Context()); err != nil {
				return err
			}
			dir, err := src.InstallDir(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
	addSourceFlags(c)
	return c
}

func newSpecsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "specs NAME",
		Short: "List the specifications a dependency provides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			if err := validateFormat(format); err != nil {
				return err
			}

			src, err := gitSource(cmd, args[0])
			if err != nil {
				return err
			}
			specs, err := src.Specs(cmd.Context())
			if err != nil {
				return err
			}
			dir, err := src.InstallDir(cmd.Context())
			if err != nil {
				return err
			}
			return writeSpecs(cmd.OutOrStdout(), format, dir, specs)
		},
	}
	addSourceFlags(c)
	c.Flags().StringP("output", "o", formatText, "output format: text, yaml or json")
	return c
}

func newPathsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "paths NAME",
		Short: "Print where a dependency is cached and installed",
		Long: `Prints the repository hash and the store directories of a dependency. The
install directory depends on the resolved revision and is only printed with
--resolve, which refreshes the mirror first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := gitSource(cmd, args[0])
			if err != nil {
				return err
			}
			resolve, err := cmd.Flags().GetBool("resolve")
			if err != nil {
				return err
			}

			p := paths{
				Hash:  src.URIHash(),
				Cache: src.RepoCacheDir(),
			}
			if resolve {
				if err := src.Cache(cmd.Context()); err != nil {
					return err
				}
				if p.Install, err = src.InstallDir(cmd.Context()); err != nil {
					return err
				}
				p.Revision = src.Revision()
			}
			return p.write(cmd.OutOrStdout())
		},
	}
	addSourceFlags(c)
	c.Flags().Bool("resolve", false, "refresh the mirror and resolve the install directory")
	return c
}

// addSourceFlags lets a command target a repository directly instead of a
// manifest entry.
func addSourceFlags(c *cobra.Command) {
	c.Flags().String("git", "", "repository locator, instead of looking NAME up in gitgem.toml")
	c.Flags().String("ref", "", "branch, tag or commit (with --git)")
	c.Flags().Bool("submodules", false, "initialize submodules (with --git)")
}

// gitSource builds the source for NAME, from the flags when --git is given
// and from the manifest otherwise.
func gitSource(cmd *cobra.Command, name string) (*source.GitSource, error) {
	dep, err := dependencyFor(cmd, name)
	if err != nil {
		return nil, err
	}
	if dep.Git == "" {
		return nil, fmt.Errorf("dependency %q is not a git dependency", name)
	}

	st, err := newStore()
	if err != nil {
		return nil, err
	}

	id := source.Identity{
		Name:       name,
		Repository: dep.Git,
		Reference:  dep.Ref,
		Submodules: dep.Submodules,
	}
	return source.NewGitSource(st, id,
		source.WithVCS(newVCS()),
		source.WithLogger(logger),
		source.WithRetries(Settings.Git.Retries),
	), nil
}

func dependencyFor(cmd *cobra.Command, name string) (config.Dependency, error) {
	git, err := cmd.Flags().GetString("git")
	if err != nil {
		return config.Dependency{}, err
	}
	ref, err := cmd.Flags().GetString("ref")
	if err != nil {
		return config.Dependency{}, err
	}
	submodules, err := cmd.Flags().GetBool("submodules")
	if err != nil {
		return config.Dependency{}, err
	}

	if git != "" {
		return config.Dependency{Git: git, Ref: ref, Submodules: submodules}, nil
	}
	if ref != "" || submodules {
		return config.Dependency{}, fmt.Errorf("--ref and --submodules require --git")
	}

	_, manifestPath, _, err := projectPaths()
	if err != nil {
		return config.Dependency{}, err
	}
	m, err := config.LoadFile(manifestPath)
	if err != nil {
		return config.Dependency{}, err
	}
	dep, ok := m.Dependencies[name]
	if !ok {
		return config.Dependency{}, fmt.Errorf("dependency %q not found in %s", name, manifestPath)
	}
	return dep, nil
}
