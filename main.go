package main

import "github.com/dotcommander/postindex/cmd"

func main() {
	cmd.Execute()
}
