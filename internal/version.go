package internal

// Version is the release version. Overridden at build time via
// -ldflags "-X codeberg.org/snonux/lingotools/internal.Version=...".
var Version = "0.1.0"
