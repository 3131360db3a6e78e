package summarize

import "errors"

// ErrUnknownFormat is returned for a summary format outside the supported set.
var ErrUnknownFormat = errors.New("unknown summary format")

// ErrEmptyContent is returned when the note has no content to summarize.
// Checked before the provider is ever invoked.
var ErrEmptyContent = errors.New("note content is empty")

// ErrSummarizeFailed is returned when the summarization provider fails.
// The service performs no retry; regenerating is a caller-level action.
var ErrSummarizeFailed = errors.New("failed to generate summary")
