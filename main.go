package main

import (
	"signal-watcher/internal/cli"
)

func main() {
	cli.Execute()
}
