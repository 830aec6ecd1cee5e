package buildinfo

// Release builds inject these via ldflags. Local builds leave them empty
// and version information falls back to debug.ReadBuildInfo.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
