package main

import "github.com/davidvella/barrace/internal/cli"

func main() {
	cli.Execute()
}
