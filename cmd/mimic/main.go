package main

import "github.com/MrSnakeDoc/mimic/internal/cli"

func main() {
	cli.Execute()
}
