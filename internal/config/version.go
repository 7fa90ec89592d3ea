package config

// Build metadata, injected via -ldflags at release time.
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)
