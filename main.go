package main

import "github.com/kiesman99/postertile/cmd"

func main() {
	cmd.Execute()
}
