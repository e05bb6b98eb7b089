package main

import "hackathon-scoreboard/internal/cli"

func main() {
	cli.Execute()
}
