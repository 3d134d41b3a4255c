// cmd/bgutils/main.go
package main

import (
	"os"

	"github.com/spitoglou/background-utils/cmd/bgutils/commands"
)

func main() {
	command := commands.NewCommand()
	if err := command.Execute(); err != nil {
		// Cobra has already printed the error; map it to the exit status.
		os.Exit(1)
	}
}
