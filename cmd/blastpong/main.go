package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Solo    SoloCmd          `cmd:"" help:"Play against the computer"`
	Host    HostCmd          `cmd:"" help:"Host a match and wait for a guest"`
	Join    JoinCmd          `cmd:"" help:"Join a hosted match from a join link"`
	Sim     SimCmd           `cmd:"" help:"Run headless AI-versus-AI matches"`
	Link    LinkCmd          `cmd:"" help:"Print a join link"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blastpong"),
		kong.Description("Two-paddle ball game with charged shots, ghost balls and decoys"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
