package main

import (
	"os"

	"consultation-booking/cmd/consultation/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
