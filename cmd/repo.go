package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/huangsam/publisher/core"
	"github.com/huangsam/publisher/schema"
	"github.com/spf13/cobra"
)

// initCmd creates and initializes the working tree.
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a git repository, creating the directory if needed",
	Long: `Create the directory if it does not exist and run git init in it.

When --remote-url is set, origin is configured right after initialization.

Examples:
  # Initialize the current directory
  publisher init

  # Initialize a new site folder and point it at GitHub
  publisher init ./site --remote-url https://github.com/acme/site.git`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		repoArg := ""
		if len(args) == 1 {
			repoArg = args[0]
		}
		return sharedSetup(rootCtx, cmd, repoArg)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			out := m.Init(ctx, cfg.RepoPath)
			if !out.Success || cfg.RemoteURL == "" {
				return out
			}
			return m.SetRemote(ctx, cfg.RepoPath, cfg.RemoteURL)
		})
	},
}

// remoteCmd groups remote management.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage the origin remote",
}

// remoteSetCmd points origin at a URL.
var remoteSetCmd = &cobra.Command{
	Use:   "set <url>",
	Short: "Point origin at a URL, adding the remote when missing",
	Long: `Set the URL of the origin remote. The remote is added when it does not exist.

Credentials embedded in the URL are never printed.

Examples:
  publisher remote set https://github.com/acme/site.git
  publisher remote set git@github.com:acme/site.git --repo ./site`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			return m.SetRemote(ctx, cfg.RepoPath, args[0])
		})
	},
}

// stageCmd stages changes for the next commit.
var stageCmd = &cobra.Command{
	Use:   "stage [files...]",
	Short: "Stage files, or every change with --all",
	Long: `Stage the listed files for the next commit. Without files or with --all,
every change in the working tree is staged.

Files outside the working tree and missing files are skipped with a warning.

Examples:
  publisher stage --all
  publisher stage index.html css/site.css`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			if all || len(args) == 0 {
				return m.StageAll(ctx, cfg.RepoPath)
			}
			return m.StageExplicit(ctx, cfg.RepoPath, absPaths(args))
		})
	},
}

// commitCmd records the staged changes.
var commitCmd = &cobra.Command{
	Use:   "commit -m <message>",
	Short: "Record the staged changes",
	Long: `Create a commit from the staged changes. Nothing staged is reported as
nothing_to_commit rather than a generic failure.

Examples:
  publisher commit -m "Update site"`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		message, _ := cmd.Flags().GetString("message")
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			return m.Commit(ctx, cfg.RepoPath, message)
		})
	},
}

// pushCmd sends the branch to origin.
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the branch to origin with retries",
	Long: `Push the branch to origin. Internet access and the hosting service are
checked first. Network failures and timeouts are retried with exponential
backoff (2s, 4s, 8s, capped at 10s); authentication failures are not.

For https remotes, --username and a token (PUBLISHER_TOKEN, --token-stdin or
--ask-token) are injected into the push URL without changing the stored remote.

Examples:
  publisher push --branch main
  PUBLISHER_TOKEN=... publisher push --username alice --max-retries 5
  publisher push --skip-probe   # local or air-gapped remotes`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			return m.Push(ctx, core.PushOptions{
				Path:       cfg.RepoPath,
				Branch:     cfg.Branch,
				Username:   cfg.Username,
				Token:      cfg.Token,
				MaxRetries: cfg.MaxRetries,
				SkipProbe:  cfg.SkipProbe,
			})
		})
	},
}

// pullCmd brings in commits from origin.
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull the branch from origin",
	Long: `Pull the branch from origin, merging by default or rebasing with --rebase.

Examples:
  publisher pull
  publisher pull --rebase --branch gh-pages`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rebase, _ := cmd.Flags().GetBool("rebase")
		opts := core.PullOptions{Path: cfg.RepoPath, Branch: cfg.Branch, Username: cfg.Username, Token: cfg.Token}
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			if rebase {
				return m.PullRebase(ctx, opts)
			}
			return m.Pull(ctx, opts)
		})
	},
}

// statusCmd compares the local branch with origin.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the branch is up to date with origin",
	Long: `Fetch the branch from origin and report how many commits the local tree is behind.

Examples:
  publisher status --branch main`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			_, out := m.RemoteStatus(ctx, cfg.RepoPath, cfg.Branch)
			return out
		})
	},
}

// copyCmd copies content into the working tree.
var copyCmd = &cobra.Command{
	Use:   "copy <paths...>",
	Short: "Copy files and folders into the working tree",
	Long: `Copy files and folders into the working tree (or --dest). Folders keep their
name unless --flat is set. Existing files are overwritten.

With --subdir or --stage, plain files are copied into the subdirectory and
staged one by one.

Examples:
  publisher copy ./build --flat
  publisher copy report.pdf --subdir docs --stage`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, _ := cmd.Flags().GetString("dest")
		flat, _ := cmd.Flags().GetBool("flat")
		subdir, _ := cmd.Flags().GetString("subdir")
		stage, _ := cmd.Flags().GetBool("stage")
		if dest == "" {
			dest = cfg.RepoPath
		}
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			if subdir != "" || stage {
				return m.CopyAndStage(ctx, cfg.RepoPath, absPaths(args), subdir)
			}
			return m.CopyIntoTree(ctx, core.CopyOptions{Dest: dest, Paths: absPaths(args), PreserveStructure: !flat})
		})
	},
}

// publishCmd runs the whole pipeline.
var publishCmd = &cobra.Command{
	Use:   "publish -m <message> <paths...>",
	Short: "Copy, stage, commit and push in one go",
	Long: `Copy the given paths into the working tree, stage every change, commit and
push. The pipeline stops at the first failing step.

Examples:
  publisher publish -m "Deploy" ./build --flat --repo ./site`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		flat, _ := cmd.Flags().GetBool("flat")
		if message == "" {
			return fmt.Errorf("--message is required for publish")
		}
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			return publish(ctx, m, absPaths(args), message, !flat)
		})
	},
}

// publish chains the operations of the publish command.
func publish(ctx context.Context, m *core.Manager, paths []string, message string, preserve bool) schema.Outcome {
	steps := []func() schema.Outcome{
		func() schema.Outcome {
			return m.CopyIntoTree(ctx, core.CopyOptions{Dest: cfg.RepoPath, Paths: paths, PreserveStructure: preserve})
		},
		func() schema.Outcome { return m.StageAll(ctx, cfg.RepoPath) },
		func() schema.Outcome { return m.Commit(ctx, cfg.RepoPath, message) },
		func() schema.Outcome {
			return m.Push(ctx, core.PushOptions{
				Path:       cfg.RepoPath,
				Branch:     cfg.Branch,
				Username:   cfg.Username,
				Token:      cfg.Token,
				MaxRetries: cfg.MaxRetries,
				SkipProbe:  cfg.SkipProbe,
			})
		},
	}
	var out schema.Outcome
	for _, step := range steps {
		if out = step(); !out.Success {
			return out
		}
	}
	return out
}

// probeCmd checks connectivity.
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check internet access and the hosting service",
	Long: `Run the same reachability checks that precede a push.

Examples:
  publisher probe
  publisher probe --tool --service-url https://gitlab.com`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tool, _ := cmd.Flags().GetBool("tool")
		return runOperation(func(ctx context.Context, m *core.Manager) schema.Outcome {
			if tool && !m.IsToolAvailable(ctx) {
				return schema.Failed(schema.ToolNotInstalled,
					fmt.Sprintf("%s was not found. Install git or set --git-binary", cfg.GitBinary), "")
			}
			return m.CheckConnectivity(ctx)
		})
	},
}

// absPaths resolves command-line paths against the current directory.
func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}
