package main

import "github.com/railzwaylabs/sagalog/internal/cli"

func main() {
	cli.Execute()
}
