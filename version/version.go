package version

import (
	"fmt"
	"runtime"
)

// Set at build time via -ldflags "-X github.com/jackzampolin/juris/version.GitRelease=..."
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)
