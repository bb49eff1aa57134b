package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
	"github.com/wheelforge/wheelforge/pkg/listfile"
	"github.com/wheelforge/wheelforge/pkg/repodata"
)

// generateCommand creates the generate command: resolve a package list and
// write the complete channel tree.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		channel     string
		anyWheel    bool
		concurrency int
		refresh     bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "generate <packages-file>",
		Short: "Generate a static conda channel from a package list",
		Long: `Generate resolves every package in the list against the index and writes
a complete static conda channel: noarch/repodata.json, its bz2 and zstd
variants, an HTML listing, and channeldata.json.

The build is all-or-nothing. If any package fails to resolve, the failures
are listed and no artifacts are written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(c.Logger)

			reqs, err := listfile.ReadRequests(args[0])
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "%s lists no packages", args[0])
			}

			if channel == "" {
				channel = c.Config.Channel
			}
			if concurrency < 1 {
				concurrency = c.Config.Concurrency
			}
			if !anyWheel {
				anyWheel = c.Config.AnyWheel
			}

			client := c.newPyPIClient(ctx, noCache)
			result, err := c.resolveAll(ctx, client, reqs, concurrency, anyWheel, refresh)
			if err != nil {
				return err
			}

			if len(result.Failures) > 0 {
				sort.Slice(result.Failures, func(i, j int) bool {
					return result.Failures[i].Request.String() < result.Failures[j].Request.String()
				})
				printError("%d of %d packages failed to resolve", len(result.Failures), len(reqs))
				for _, f := range result.Failures {
					printDetail("%s: %s", f.Request, apperrors.UserMessage(f.Err))
				}
				if !result.Terminal() {
					printWarning("Some failures were network errors; rerunning may succeed")
				}
				return fmt.Errorf("%d packages failed to resolve; no artifacts written", len(result.Failures))
			}

			doc, err := repodata.Build(result.Packages)
			if err != nil {
				return err
			}

			subdir := filepath.Join(channel, repodata.Subdir)
			artifacts, err := repodata.WriteArtifacts(doc, subdir)
			if err != nil {
				return err
			}
			if err := repodata.WriteIndexHTML(subdir, filepath.Base(channel)+"/"+repodata.Subdir, artifacts); err != nil {
				return err
			}
			if err := repodata.WriteChannelData(channel); err != nil {
				return err
			}

			prog.done(fmt.Sprintf("Resolved %d packages", len(result.Packages)))
			printSuccess("Generated channel with %d packages", len(result.Packages))
			for _, a := range artifacts {
				printFile(filepath.Join(subdir, a.Name) + " (" + repodata.HumanSize(a.Size) + ")")
			}
			printFile(filepath.Join(channel, "channeldata.json"))
			printNextStep("Serve it", appName+" serve "+channel)
			return nil
		},
	}

	cmd.Flags().StringVarP(&channel, "channel", "o", "", "channel output directory (default from config)")
	cmd.Flags().BoolVar(&anyWheel, "any-wheel", false, "accept platform-specific wheels too")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "concurrent metadata resolutions (default from config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")

	return cmd
}
