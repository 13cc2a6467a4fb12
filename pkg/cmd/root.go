package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitgem/gitgem/pkg/config"
	"github.com/gitgem/gitgem/pkg/installer"
	"github.com/gitgem/gitgem/pkg/logging"
	"github.com/gitgem/gitgem/pkg/source"
	"github.com/gitgem/gitgem/pkg/store"
	"github.com/gitgem/gitgem/pkg/vcs"
)

var (
	// Settings holds the resolved developer settings, available to all
	// subcommands after PersistentPreRunE completes.
	Settings *config.Settings

	logger = logging.Discard()
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gitgem",
		Short: "Git-sourced package installer",
		Long:  "gitgem mirrors git repositories, checks out pinned revisions and discovers the package specifications inside them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings(cmd.Flags())
			if err != nil {
				return err
			}
			l, err := logging.New(cmd.ErrOrStderr(), s.LogLevel)
			if err != nil {
				return err
			}
			Settings, logger = s, l
			return nil
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("root", "", "directory holding caches and checkouts (default ~/.gitgem)")
	flags.String("vendor", "", "vendor namespace inside the root (default bundler)")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("git-backend", "", `git implementation: "exec" or "go-git"`)
	flags.String("git-command", "", "git executable used by the exec backend")
	flags.Duration("git-timeout", 0, "time limit for each git operation")
	flags.Uint("git-retries", 0, "extra attempts for a failing clone or fetch")
	flags.Bool("git-allow-file-protocol", false, "allow submodules cloned from local paths (exec backend)")
	flags.IntP("jobs", "j", 0, "dependencies installed in parallel")

	root.AddCommand(newInitCmd())
	root.AddCommand(newInstallCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newRemoveCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newRevParseCmd())
	root.AddCommand(newCheckoutCmd())
	root.AddCommand(newSpecsCmd())
	root.AddCommand(newPathsCmd())

	return root
}

func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		printDiagnostic(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}

// printDiagnostic shows the git output behind a failure, which cobra's
// error line leaves out.
func printDiagnostic(w io.Writer, err error) {
	var diagnostic string
	var cacheErr *source.CacheError
	var refErr *source.ReferenceError
	var coErr *source.CheckoutError
	switch {
	case errors.As(err, &cacheErr):
		diagnostic = cacheErr.Diagnostic
	case errors.As(err, &refErr):
		diagnostic = refErr.Diagnostic
	case errors.As(err, &coErr):
		diagnostic = coErr.Diagnostic
	}
	if diagnostic != "" {
		fmt.Fprintf(w, "\n%s\n", diagnostic)
	}
}

func newStore() (store.Store, error) {
	if Settings.Root != "" {
		return store.New(Settings.Root, Settings.Vendor), nil
	}
	return store.Default(Settings.Vendor)
}

func newVCS() vcs.VCS {
	if Settings.Git.Backend == config.BackendGoGit {
		return &vcs.GoGit{Timeout: Settings.Git.Timeout, Logger: logger}
	}
	return &vcs.Git{
		Command:           Settings.Git.Command,
		Timeout:           Settings.Git.Timeout,
		AllowFileProtocol: Settings.Git.AllowFileProtocol,
		Logger:            logger,
	}
}

func newInstaller() (*installer.Installer, error) {
	s, err := newStore()
	if err != nil {
		return nil, err
	}
	return &installer.Installer{
		Store:   s,
		VCS:     newVCS(),
		Logger:  logger,
		Retries: Settings.Git.Retries,
		Jobs:    Settings.Install.Jobs,
	}, nil
}
