package flowcore

// Version is the release version string, overridden at build time via
// -ldflags "-X github.com/flowcoreio/flowcore.Version=...".
var Version = "dev"
