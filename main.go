package main

import (
	"os"

	"github.com/restcore/restcore/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
