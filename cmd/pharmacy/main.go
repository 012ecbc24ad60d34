package main

import "pharmacy/m/internal/commands"

func main() {
	commands.Execute()
}
