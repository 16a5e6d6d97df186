package env

// Build-time variables, overridable via -ldflags.
var (
	AppName    = "pngler"
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)
