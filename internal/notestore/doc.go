// Package notestore defines the contract to the host application's note
// and collection storage, plus a SQLite implementation over an Anki-style
// collection file. The engine only depends on the interfaces; direct
// storage access stays behind them.
package notestore
