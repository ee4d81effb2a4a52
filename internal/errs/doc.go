// Package errs defines the closed set of error types surfaced by the
// transformation engine, plus helpers for aggregating errors across batch
// operations and routing unclassified errors to an observability reporter.
package errs
