package main

import "github.com/rmharte/rxq/cmd"

func main() {
	cmd.Execute()
}
