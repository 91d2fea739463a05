package main

import "github.com/marshallshelly/tillpoint/cmd/tillpoint/commands"

func main() {
	commands.Execute()
}
