package main

import (
	"github.com/macvmio/regusage/cmd/regusage/cmd"
)

func main() {
	cmd.Execute(cmd.InitializeCommands())
}
