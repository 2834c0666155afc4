package main

import (
	"os"

	"allthingslinux/atl/cmd/commands/inventory"
)

func main() {
	if err := inventory.ScriptCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
