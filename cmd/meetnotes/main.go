package main

import "meet-notes-recorder/internal/cli"

func main() {
	cli.Execute()
}
