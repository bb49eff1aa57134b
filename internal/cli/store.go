package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/wheelforge/wheelforge/pkg/errors"
	"github.com/wheelforge/wheelforge/pkg/listfile"
	"github.com/wheelforge/wheelforge/pkg/store"
)

// storeCommand creates the store command: resolve a package list and persist
// the outcomes as records keyed by wheel URL, so later builds and other
// tooling can read them without touching the index.
func (c *CLI) storeCommand() *cobra.Command {
	var (
		dsn         string
		anyWheel    bool
		concurrency int
		refresh     bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "store <packages-file>",
		Short: "Resolve a package list into a record store",
		Long: `Store resolves every package in the list and upserts one record per
resolved wheel (url, name, version, depends) into the record store: a JSON
file by default, or MongoDB with --store mongodb://...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(c.Logger)

			reqs, err := listfile.ReadRequests(args[0])
			if err != nil {
				return err
			}

			if dsn == "" {
				dsn = c.Config.StoreDSN
			}
			if dsn == "" {
				dsn = "records.json"
			}
			if concurrency < 1 {
				concurrency = c.Config.Concurrency
			}

			client := c.newPyPIClient(ctx, noCache)
			result, err := c.resolveAll(ctx, client, reqs, concurrency, anyWheel, refresh)
			if err != nil {
				return err
			}

			s, err := store.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close(ctx) }()

			now := time.Now().UTC()
			for _, pkg := range result.Packages {
				rec := store.Record{
					URL:        pkg.Wheel.URL,
					Name:       pkg.Name,
					Version:    pkg.Version,
					Depends:    pkg.Depends,
					ResolvedAt: now,
				}
				if err := s.Put(ctx, rec); err != nil {
					return err
				}
			}

			prog.done(fmt.Sprintf("Stored %d records", len(result.Packages)))
			printSuccess("Stored %d of %d packages", len(result.Packages), len(reqs))
			if len(result.Failures) > 0 {
				sort.Slice(result.Failures, func(i, j int) bool {
					return result.Failures[i].Request.String() < result.Failures[j].Request.String()
				})
				printWarning("%d packages did not resolve", len(result.Failures))
				for _, f := range result.Failures {
					printDetail("%s: %s", f.Request, apperrors.UserMessage(f.Err))
				}
			}
			printDetail("Store: %s", dsn)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "store", "", "record store: file path or mongodb:// DSN (default from config)")
	cmd.Flags().BoolVar(&anyWheel, "any-wheel", false, "accept platform-specific wheels too")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "concurrent metadata resolutions (default from config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")

	return cmd
}
