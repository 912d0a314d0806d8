package main

import "github.com/agentic-research/axtree/cmd"

func main() {
	cmd.Execute()
}
