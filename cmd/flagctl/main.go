// Command flagctl inspects flag declarations and manages stored flag sets.
package main

import (
	"os"

	"github.com/MrEthical07/goFlags/internal/cli"
)

func main() {
	os.Exit(cli.New().Execute())
}
