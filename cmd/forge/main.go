package main

import "github.com/forgebuild/forge/cmd/forge/commands"

func main() {
	commands.Execute()
}
