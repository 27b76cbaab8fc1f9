// Command z80asm assembles 8080, Z80 and Z180 sources written in the
// MA, M80, PASMO or ZASM dialects, and can patch a previously written
// binary instead of replacing it.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
