package main

import (
	"os"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/cmd/sitectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
