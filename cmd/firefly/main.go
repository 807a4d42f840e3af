package main

import (
	fireflycmd "github.com/bitop-dev/firefly/cmd"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	fireflycmd.SetVersionInfo(version, commit)
	fireflycmd.Execute()
}
