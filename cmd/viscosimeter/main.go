package main

import "github.com/OpenTraceLab/viscosimeter/cmd/viscosimeter/cmd"

func main() {
	cmd.Execute()
}
