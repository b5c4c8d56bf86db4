package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		// Interrupted run; the pipeline already rolled back cleanly.
		os.Exit(130)
	}
	fmt.Fprintln(os.Stderr, "marquee:", err)
	os.Exit(1)
}
