// The entrypoint for the qiyas CLI.
package main

import (
	"log"

	"qiyas/cmd/qiyas/commands"
)

// Initialises and executes the command hierarchy.
func main() {
	if err := commands.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
