/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/rs/zerolog"

	"github.com/suparena/softdelete"
	"github.com/suparena/softdelete/backend"
	"github.com/suparena/softdelete/config"
	"github.com/suparena/softdelete/filter"
	"github.com/suparena/softdelete/logger"
)

// defaultOptions apply when no options file is configured.
var defaultOptions = config.Options{
	IndexFields:   config.AllIndexFields(),
	DeletedBy:     true,
	DeletedByType: config.DeletedByString,
}

// session is an opened collection plus what is needed to release it.
type session struct {
	coll  *softdelete.Collection
	log   zerolog.Logger
	close backend.CloseFunc
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	if opts.Collection == "" {
		return nil, WrapExitError(ExitCommandError, "--collection is required", nil)
	}

	env := config.LoadEnv(opts.EnvFiles...)
	level := env.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: env.LogPretty})

	sdOpts := defaultOptions
	optionsFile := opts.OptionsFile
	if optionsFile == "" {
		optionsFile = env.OptionsFile
	}
	if optionsFile != "" {
		var err error
		if sdOpts, err = config.LoadFile(optionsFile); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load options", err)
		}
	}

	store, closeFn, err := backend.Open(ctx, env, opts.Collection, log.Component("backend"))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open backend", err)
	}

	coll, err := softdelete.New(store, sdOpts, softdelete.WithLogger(log.Collection(opts.Collection)))
	if err != nil {
		_ = closeFn(ctx)
		return nil, WrapExitError(ExitCommandError, "failed to attach soft-delete layer", err)
	}
	return &session{coll: coll, log: log.Zerolog(), close: closeFn}, nil
}

// conditions combines --filter and --deleted-before.
func conditions(opts *RootOptions) (filter.Conditions, error) {
	conds, err := filter.ParseJSON(opts.Filter)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --filter", err)
	}
	if opts.DeletedBefore != "" {
		dt, err := strfmt.ParseDateTime(opts.DeletedBefore)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --deleted-before", err)
		}
		conds[config.FieldDeletedAt] = filter.Lt(time.Time(dt).UTC())
	}
	return conds, nil
}
