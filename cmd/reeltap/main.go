// Command reeltap runs the resilient video-extraction HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/tmoore-dev/reeltap/cmd/reeltap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
