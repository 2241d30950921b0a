// Command filmsync mirrors the streaming catalog into a local snapshot and serves it read-only.
package main

import (
	"filmsync/internal/models"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(models.ExitFailed)
	}
}
