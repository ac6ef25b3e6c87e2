package main

import "github.com/kovyrin/pdfish/internal/cmd"

func main() {
	cmd.Execute()
}
