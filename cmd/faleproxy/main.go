package main

import (
	"os"

	"github.com/nerdneilsfield/faleproxy/internal/cli"
)

// 构建时通过 -ldflags 注入
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	os.Exit(cli.Run(cli.NewRootCommand(Version, Commit, BuildDate)))
}
