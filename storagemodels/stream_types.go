package storagemodels

import (
	"time"
)

// StreamResult is one document delivered by a backend stream.
type StreamResult[T any] struct {
	Item  T          // Decoded document; zero when Error is set
	Raw   any        // Backend-native form (DynamoDB item, BSON bytes, JSON text)
	Error error      // Per-item or fatal error
	Meta  StreamMeta // Position of the item in the stream
}

// StreamMeta locates a streamed item.
type StreamMeta struct {
	Index      int64     // 0-based
	PageNumber int       // 1-based
	Timestamp  time.Time // When the item was read
}

// StreamOptions configures backend streams. Backends that read a cursor
// instead of pages use PageSize only to number pages.
type StreamOptions struct {
	BufferSize      int
	MaxRetries      int
	RetryBackoff    time.Duration
	PageSize        int32
	ProgressHandler func(StreamProgress)
	// ErrorHandler decides whether a stream continues after an error.
	// Without one, undecodable items are skipped and failed reads stop the
	// stream.
	ErrorHandler func(error) bool
}

// StreamProgress is handed to the ProgressHandler once a stream ends.
type StreamProgress struct {
	ItemsProcessed int64
	PagesProcessed int
	LastKey        any // backend cursor of the last page, nil when exhausted
	Errors         []error
	StartTime      time.Time
	CurrentRate    float64 // items per second
}

type StreamOption func(*StreamOptions)

// DefaultStreamOptions: 100-item buffer and pages, 3 retries 1s apart.
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize:   100,
		MaxRetries:   3,
		RetryBackoff: time.Second,
		PageSize:     100,
	}
}

// NewStreamOptions applies opts over the defaults.
func NewStreamOptions(opts ...StreamOption) StreamOptions {
	options := DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// SkipItemError reports whether a stream should move past an item it
// could not decode.
func (o StreamOptions) SkipItemError(err error) bool {
	return o.ErrorHandler == nil || o.ErrorHandler(err)
}

// RetryReadError reports whether a stream should keep going after a read
// failed and its retries ran out.
func (o StreamOptions) RetryReadError(err error) bool {
	return o.ErrorHandler != nil && o.ErrorHandler(err)
}

// Report fills in the rate and hands p to the ProgressHandler, if any.
func (o StreamOptions) Report(p StreamProgress) {
	if o.ProgressHandler == nil {
		return
	}
	if elapsed := time.Since(p.StartTime).Seconds(); elapsed > 0 {
		p.CurrentRate = float64(p.ItemsProcessed) / elapsed
	}
	o.ProgressHandler(p)
}

// PageOf numbers the page holding the item at index.
func (o StreamOptions) PageOf(index int64) int {
	size := int64(o.PageSize)
	if size <= 0 {
		return 1
	}
	return int(index/size) + 1
}

func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) { opts.BufferSize = size }
}

func WithMaxRetries(retries int) StreamOption {
	return func(opts *StreamOptions) { opts.MaxRetries = retries }
}

func WithRetryBackoff(backoff time.Duration) StreamOption {
	return func(opts *StreamOptions) { opts.RetryBackoff = backoff }
}

func WithPageSize(size int32) StreamOption {
	return func(opts *StreamOptions) { opts.PageSize = size }
}

func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) { opts.ProgressHandler = handler }
}

func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(opts *StreamOptions) { opts.ErrorHandler = handler }
}
