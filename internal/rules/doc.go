// Package rules stores the per-field language assignments and the
// memorized transformation rules. The store is keyed by note type, deck and
// field names so that stored configurations survive id churn across
// installs; the backing configuration subsystem is injected and treated as
// opaque.
package rules
