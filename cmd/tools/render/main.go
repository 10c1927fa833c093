// Command render interprets a query result in the terminal. It reads a
// saved backend response, or asks the backend a question directly, and
// prints the metrics, the selected visualization and the requested views.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
