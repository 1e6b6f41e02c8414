// Command patientbot is the terminal front end for the patient search
// assistant.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCommand(loadApp).Execute(); err != nil {
		os.Exit(1)
	}
}
