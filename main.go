package main

import "github.com/fakeyudi/reflecto/cmd"

func main() {
	cmd.Execute()
}
