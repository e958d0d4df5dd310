/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/softdelete"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/storagemodels"
)

// withSession opens the collection, runs fn and closes the backend.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, s *session, conds filter.Conditions) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	conds, err := conditions(opts)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to close backend")
		}
	}()
	return fn(ctx, s, conds)
}

// NewCountCommand creates the count command.
func NewCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count records visible under --visibility",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session, conds filter.Conditions) error {
				n, err := s.coll.View(opts.visibility).Count(ctx, conds)
				if err != nil {
					return WrapExitError(ExitFailure, "count failed", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Limit int64
	Skip  int64
	Sort  string
	Desc  bool
}

// NewFindCommand creates the find command. Records are printed as JSON
// lines.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "List records visible under --visibility",
		Long: `List records as JSON lines.

Examples:
  softdelete find -c articles --visibility deleted
  softdelete find -c articles --visibility deleted --deleted-before 2024-01-01T00:00:00Z
  softdelete find -c articles --filter '{"status": "draft"}' --sort createdAt --desc --limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts.RootOptions, func(ctx context.Context, s *session, conds filter.Conditions) error {
				var findOpts []storagemodels.FindOption
				if opts.Sort != "" {
					findOpts = append(findOpts, storagemodels.WithSort(opts.Sort, !opts.Desc))
				}
				if opts.Limit > 0 {
					findOpts = append(findOpts, storagemodels.WithLimit(opts.Limit))
				}
				if opts.Skip > 0 {
					findOpts = append(findOpts, storagemodels.WithSkip(opts.Skip))
				}

				docs, err := s.coll.View(opts.visibility).Find(ctx, conds, findOpts...)
				if err != nil {
					return WrapExitError(ExitFailure, "find failed", err)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				for _, doc := range docs {
					if err := enc.Encode(doc); err != nil {
						return WrapExitError(ExitFailure, "failed to write record", err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&opts.Limit, "limit", 0, "maximum number of records")
	cmd.Flags().Int64Var(&opts.Skip, "skip", 0, "number of records to skip")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "field to sort by")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "sort descending")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	var by, id string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Soft-delete matching records",
		Long: `Flag matching records as deleted, recording the time and --by.

With --id only that active record is deleted; otherwise every record
matching --filter is.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session, conds filter.Conditions) error {
				var actor any
				if by != "" {
					actor = by
				}
				if id != "" {
					if _, err := s.coll.DeleteByID(ctx, id, actor); err != nil {
						return WrapExitError(ExitFailure, "delete failed", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "deleted 1")
					return nil
				}
				res, err := s.coll.Delete(ctx, conds, actor)
				if err != nil {
					return WrapExitError(ExitFailure, "delete failed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", res.Modified)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "who is deleting the records")
	cmd.Flags().StringVar(&id, "id", "", "delete a single record by identifier")

	return cmd
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(opts *RootOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore matching soft-deleted records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session, conds filter.Conditions) error {
				if id != "" {
					if _, err := s.coll.RestoreByID(ctx, id); err != nil {
						return WrapExitError(ExitFailure, "restore failed", err)
					}
					fmt.Fprintln(cmd.OutOrStdout(), "restored 1")
					return nil
				}
				res, err := s.coll.Restore(ctx, conds)
				if err != nil {
					return WrapExitError(ExitFailure, "restore failed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %d\n", res.Modified)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "restore a single record by identifier")

	return cmd
}

// NewIndexesCommand creates the indexes command.
func NewIndexesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the indexes requested by the soft-delete options",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session, _ filter.Conditions) error {
				if err := s.coll.EnsureIndexes(ctx); err != nil {
					return WrapExitError(ExitFailure, "failed to ensure indexes", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "indexes ensured")
				return nil
			})
		},
	}
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			info := softdelete.GetVersionInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "softdelete version %s\n", info.Version)
			fmt.Fprintf(out, "Git commit: %s\n", info.GitCommit)
			fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
			fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
		},
	}
}
