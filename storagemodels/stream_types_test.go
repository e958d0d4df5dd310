/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"errors"
	"testing"
	"time"
)

func TestStreamErrorDecisions(t *testing.T) {
	err := errors.New("boom")

	t.Run("no handler", func(t *testing.T) {
		opts := NewStreamOptions()
		if !opts.SkipItemError(err) {
			t.Error("undecodable items should be skipped without a handler")
		}
		if opts.RetryReadError(err) {
			t.Error("failed reads should stop the stream without a handler")
		}
	})

	t.Run("handler decides", func(t *testing.T) {
		var seen []error
		stop := NewStreamOptions(WithErrorHandler(func(e error) bool {
			seen = append(seen, e)
			return false
		}))
		if stop.SkipItemError(err) || stop.RetryReadError(err) {
			t.Error("handler returning false should stop the stream")
		}
		if len(seen) != 2 {
			t.Errorf("handler called %d times, want 2", len(seen))
		}

		keepGoing := NewStreamOptions(WithErrorHandler(func(error) bool { return true }))
		if !keepGoing.SkipItemError(err) || !keepGoing.RetryReadError(err) {
			t.Error("handler returning true should continue the stream")
		}
	})
}

func TestReportFillsRate(t *testing.T) {
	var got StreamProgress
	opts := NewStreamOptions(WithProgressHandler(func(p StreamProgress) { got = p }))
	opts.Report(StreamProgress{ItemsProcessed: 10, StartTime: time.Now().Add(-time.Second)})

	if got.ItemsProcessed != 10 {
		t.Fatalf("ItemsProcessed = %d, want 10", got.ItemsProcessed)
	}
	if got.CurrentRate <= 0 || got.CurrentRate > 10 {
		t.Errorf("CurrentRate = %f, want (0, 10]", got.CurrentRate)
	}

	// No handler is a no-op.
	NewStreamOptions().Report(StreamProgress{})
}

func TestPageOf(t *testing.T) {
	tests := []struct {
		size  int32
		index int64
		want  int
	}{
		{100, 0, 1},
		{100, 99, 1},
		{100, 100, 2},
		{1, 4, 5},
		{0, 42, 1},
	}
	for _, tt := range tests {
		opts := NewStreamOptions(WithPageSize(tt.size))
		if got := opts.PageOf(tt.index); got != tt.want {
			t.Errorf("PageOf(%d) with size %d = %d, want %d", tt.index, tt.size, got, tt.want)
		}
	}
}
