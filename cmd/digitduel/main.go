package main

import "github.com/acrofts/digitduel/internal/cli"

func main() {
	cli.Execute()
}
