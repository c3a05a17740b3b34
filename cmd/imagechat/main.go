// Package main is the entry point for the imagechat CLI.
//
// Usage:
//
//	imagechat [flags] <command> [args]
//
// Commands:
//
//	chat      - Send one chat message; image requests produce an image
//	generate  - Generate images from a prompt
//	edit      - Edit one or more images following a prompt
//	classify  - Show whether text reads as an image request (offline)
//	analyze   - Show the parameters the optimizer picks for a prompt
package main

import (
	"fmt"
	"os"

	"github.com/mhpenta/imagechat/cmd/imagechat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
