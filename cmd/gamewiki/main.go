// Package main provides the entry point for the gamewiki CLI.
package main

import (
	"os"

	"github.com/xiaocao12306/gamewiki-sub002/cmd/gamewiki/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
