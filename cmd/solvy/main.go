// Solvy: iterative task solver.
//
// Solvy turns a task into requirements and tests, reuses past solutions
// from its memory, gathers background resources, proposes an answer and
// retries while tests fail. It runs as a one-shot CLI or as an MCP server.
//
// Usage:
//
//	solvy solve "write a function that sums a list"
//	solvy serve                  # Start MCP server (stdio transport)
//	solvy runs [id]              # Inspect past runs
//	solvy memory stats           # Inspect the solver memory
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
