package catalogsync

var (
	// Set at compile time, build like the following:
	// go build -ldflags "-X github.com/slabworks/catalog-sync.Sha=$(git rev-parse --short HEAD) -X github.com/slabworks/catalog-sync.Build=$(date -u +%Y%m%d%H%M%S)"

	// Sha the commit sha
	Sha string
	// Build the build number
	Build string
)

// Version returns the sha/build
func Version() (string, string) {
	return Sha, Build
}
