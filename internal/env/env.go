package env

// Build metadata, overridden at link time via -ldflags.
var (
	AppName    = "recoup"
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)
