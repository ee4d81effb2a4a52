// Package batch runs stored transformation rules over whole decks. It
// owns the rule application logic shared with the as-you-type path and
// the executor that walks notes, aggregates per-attempt errors and
// reports progress.
package batch
