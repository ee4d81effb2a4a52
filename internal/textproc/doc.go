// Package textproc normalizes raw note field values into the plain text
// handed to the language tools service. It strips embedded images, flattens
// HTML into a single line, and applies the user's ordered find/replace
// rules, gated per transformation kind.
package textproc
