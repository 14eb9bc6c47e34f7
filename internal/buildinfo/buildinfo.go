package buildinfo

// Set with -ldflags "-X github.com/didi/scc/internal/buildinfo.Version=..."
var (
	Version   = "dev"
	CommitID  = "unknown"
	BuildTime = "unknown"
)
