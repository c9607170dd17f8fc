package main

import "github.com/icco/modmetro/cmd"

func main() {
	cmd.Execute()
}
