// Command atlas manages maps, the links between their edges, and simulates
// objects crossing them.
package main

import "github.com/mesh-intelligence/atlas/internal/cli"

func main() {
	cli.Execute()
}
