package main

import "github.com/agentic-research/astro-html-helper/cmd"

func main() {
	cmd.Execute()
}
