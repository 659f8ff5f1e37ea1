package main

import "github.com/xlatombet/abt/internal/cli"

func main() {
	cli.Execute()
}
