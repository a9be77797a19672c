package models

import "errors"

// ErrCancelled is returned by pipeline stages that stop because the task
// was cancelled. It lives here so every stage can report cancellation
// with the same sentinel.
var ErrCancelled = errors.New("crawl cancelled by user")
