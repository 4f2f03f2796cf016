package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"flacmirror/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			if services.IsFatal(err) {
				fmt.Fprintln(os.Stderr, "fatal:", err)
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		os.Exit(1)
	}
}
