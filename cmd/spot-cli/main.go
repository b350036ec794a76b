package main

import (
	"context"

	"spotifier-core/cmd/spot-cli/commands"
	"spotifier-core/lib/osutil"
)

func main() {
	commands.ExecuteContext(osutil.SignalContext(context.Background()))
}
