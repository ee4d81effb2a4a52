// Package processor contains the command-level orchestration: it opens the
// collection and the rule configuration, wires the language tools client
// into the batch executor, and drives language detection and catalog
// listings. This package serves as the main coordinator between all other
// components.
package processor
