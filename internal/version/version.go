package version

// Populated at build time via -ldflags "-X ...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
