package main

import "allthingslinux/atl/cmd"

func main() {
	cmd.Execute()
}
