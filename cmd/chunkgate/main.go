package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"chunkgate/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var rejected *rejectedError
		if stderrors.As(err, &rejected) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if code := errors.CodeOf(err); code != "" {
			fmt.Fprintf(os.Stderr, "Code: %s\n", code)
		}
		os.Exit(1)
	}
}
