package cli

import (
	"context"

	"github.com/spf13/cobra"

	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
	"github.com/wheelforge/wheelforge/pkg/listfile"
	"github.com/wheelforge/wheelforge/pkg/registry/pypi"
	"github.com/wheelforge/wheelforge/pkg/resolve"
	"github.com/wheelforge/wheelforge/pkg/wheel"
)

// discoverCommand creates the discover command group.
func (c *CLI) discoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover packages and installable wheels on the index",
	}

	cmd.AddCommand(c.discoverNamesCommand())
	cmd.AddCommand(c.discoverWheelsCommand())

	return cmd
}

// discoverNamesCommand creates the "discover names" subcommand: the full
// package catalog from the simple index, one normalized name per line.
func (c *CLI) discoverNamesCommand() *cobra.Command {
	var (
		output  string
		refresh bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "names",
		Short: "List every package name published on the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(c.Logger)

			client := c.newPyPIClient(ctx, noCache)
			names, err := client.ListProjects(ctx, refresh)
			if err != nil {
				return err
			}
			if err := listfile.WriteNames(output, names); err != nil {
				return err
			}

			prog.done("Catalog downloaded")
			printSuccess("Discovered %d packages", len(names))
			printFile(output)
			printNextStep("Find installable wheels", appName+" discover wheels "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "names.txt", "output file")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")

	return cmd
}

// wheelChecker finds the best installable version of a package from its
// simple-index file listing alone, without fetching full metadata. It plugs
// into the resolve.Pool so discovery shares the admission gate and progress
// reporting with generation.
type wheelChecker struct {
	client   *pypi.Client
	pureOnly bool
	refresh  bool
}

func (w *wheelChecker) Resolve(ctx context.Context, req resolve.Request) (*resolve.Package, error) {
	if files, err := w.client.FileListing(ctx, req.Name, w.refresh); err == nil {
		if version, ok := wheel.Select(files, w.pureOnly); ok {
			return &resolve.Package{SourceName: req.Name, Name: req.Name, Version: version}, nil
		}
	}

	// Listing absent or without a qualifying wheel: the JSON API decides,
	// using the latest release.
	rel, err := w.client.FetchRelease(ctx, req.Name, "", w.refresh)
	if err != nil {
		return nil, err
	}
	file := rel.Wheel()
	if file == nil {
		return nil, apperrors.New(apperrors.ErrCodeNoWheel, "%s: release ships no wheel", req.Name)
	}
	parsed, ok := wheel.Parse(file.Filename)
	if !ok || (w.pureOnly && !parsed.Pure()) {
		return nil, apperrors.New(apperrors.ErrCodeNoWheel, "%s: no qualifying wheel", req.Name)
	}
	return &resolve.Package{SourceName: req.Name, Name: req.Name, Version: rel.Info.Version}, nil
}

// discoverWheelsCommand creates the "discover wheels" subcommand: for each
// name, check whether its best version ships a qualifying wheel, and write
// the survivors as name==version pins.
func (c *CLI) discoverWheelsCommand() *cobra.Command {
	var (
		output      string
		anyWheel    bool
		concurrency int
		refresh     bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "wheels <names-file>",
		Short: "Find packages whose best version ships an installable wheel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(c.Logger)

			names, err := listfile.ReadNames(args[0])
			if err != nil {
				return err
			}
			reqs := make([]resolve.Request, len(names))
			for i, name := range names {
				reqs[i] = resolve.Request{Name: name}
			}

			if concurrency < 1 {
				concurrency = c.Config.Concurrency
			}
			pool := &resolve.Pool{
				Resolver: &wheelChecker{
					client:   c.newPyPIClient(ctx, noCache),
					pureOnly: !anyWheel,
					refresh:  refresh,
				},
				Limit:  concurrency,
				Logger: c.Logger,
			}
			result, err := pool.Run(ctx, reqs)
			if err != nil {
				return err
			}

			pins := make([]resolve.Request, len(result.Packages))
			for i, pkg := range result.Packages {
				pins[i] = resolve.Request{Name: pkg.Name, Version: pkg.Version}
			}
			if err := listfile.WriteRequests(output, pins); err != nil {
				return err
			}

			prog.done("Wheel check complete")
			printSuccess("%d of %d packages ship an installable wheel", len(pins), len(names))
			if skipped := len(result.Failures); skipped > 0 {
				printDetail("%d packages skipped (no wheel, absent, or unreachable)", skipped)
			}
			printFile(output)
			printNextStep("Generate the channel", appName+" generate "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "packages.txt", "output file")
	cmd.Flags().BoolVar(&anyWheel, "any-wheel", false, "accept platform-specific wheels too")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "concurrent index requests (default from config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")

	return cmd
}
