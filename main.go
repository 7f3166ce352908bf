package main

import (
	"CortexFM/cmd"
)

func main() {
	cmd.Execute()
}
