// Command enunciate is the pronunciation scoring server and CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "enunciate: %v\n", err)
		os.Exit(1)
	}
}
