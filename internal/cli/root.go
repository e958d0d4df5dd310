/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/softdelete"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // operation failed against the backend
	ExitCommandError = 2 // bad flags or configuration
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error, defaulting to
// ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Collection    string
	Visibility    string
	Filter        string
	DeletedBefore string
	EnvFiles      []string
	OptionsFile   string
	Verbose       bool

	visibility softdelete.Visibility
}

// NewRootCommand creates the softdelete admin command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "softdelete",
		Short: "Inspect and manage soft-deleted records",
		Long: `Count, list, delete and restore records through the soft-delete layer.

The backend is chosen by SOFTDELETE_BACKEND (memory, dynamodb, mongo,
postgres, sqlite) and its connection settings, read from the environment
and any .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := softdelete.ParseVisibility(opts.Visibility)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --visibility", err)
			}
			opts.visibility = v
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.Collection, "collection", "c", "", "collection name")
	flags.StringVar(&opts.Visibility, "visibility", "active", "records to operate on (active|deleted|all)")
	flags.StringVar(&opts.Filter, "filter", "", `JSON conditions, e.g. '{"status": "draft"}'`)
	flags.StringVar(&opts.DeletedBefore, "deleted-before", "", "only records deleted before this RFC3339 time")
	flags.StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv files to load (default ./.env)")
	flags.StringVar(&opts.OptionsFile, "options", "", "YAML soft-delete options (default $SOFTDELETE_OPTIONS)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewIndexesCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
