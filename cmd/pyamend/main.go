package main

import (
	"os"

	"pyamend/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
