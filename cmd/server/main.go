package main

import "github.com/kmf-ai/server/internal/cli"

func main() {
	cli.Execute()
}
