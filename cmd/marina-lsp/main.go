// Command marina-lsp serves diagnostics, completion and hover for marina
// sources over the Language Server Protocol on stdio.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Int("v", 0, "log verbosity (logs go to stderr)")
	flag.Parse()

	// stdout carries the protocol
	commonlog.Configure(*verbose, nil)

	server := NewLanguageServer()
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
