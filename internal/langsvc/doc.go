// Package langsvc is the client for the cloud language tools service. It
// wraps the translate, transliterate, detect and audio endpoints plus the
// read-only catalog queries, normalizing error responses into typed request
// errors. The service itself is a black box; this package only owns the
// HTTP contract.
package langsvc
