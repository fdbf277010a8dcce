// main is the entry point of the publisher CLI.
package main

import (
	"errors"
	"os"

	"github.com/huangsam/publisher/cmd"
	"github.com/huangsam/publisher/internal/contract"
	"github.com/huangsam/publisher/internal/history"
	"github.com/huangsam/publisher/schema"
)

func main() {
	err := cmd.Execute()
	history.CloseStore()
	if err == nil {
		return
	}
	// Failed operations were already reported by the console observer
	var opErr *schema.OperationError
	if errors.As(err, &opErr) {
		os.Exit(1)
	}
	contract.LogFatal("publisher failed", err)
}
