package main

import "github.com/pfrederiksen/eplus-events/internal/cli"

func main() {
	cli.Execute()
}
