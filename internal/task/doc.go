// Package task provides a bounded in-memory task queue and the worker pool
// that drains it. The card pipeline uses it to resolve names concurrently
// when configured for more than one worker.
package task
