package build

import "fmt"

// Set at link time, ie -ldflags "-X github.com/bornholm/corpus-indexer/internal/build.Version=v1.0.0"
var (
	Version   = "dev"
	GitRef    = "unknown"
	BuildDate = "unknown"
)

var LongVersion = fmt.Sprintf("%s (%s, %s)", Version, GitRef, BuildDate)
