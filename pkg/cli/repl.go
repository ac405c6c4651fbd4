package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/dcfrancisco/marina/internal/backend"
	"github.com/dcfrancisco/marina/internal/lexer"
	"github.com/dcfrancisco/marina/internal/parser"
	"github.com/dcfrancisco/marina/internal/pipeline"
	"github.com/dcfrancisco/marina/internal/vm"
)

// runREPL reads one program per line. Lines do not share state.
func (a *app) runREPL() int {
	project, err := a.loadProject("")
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %s\n", err)
		return 1
	}

	interactive := vm.IsTerminal(a.stdin)
	if interactive {
		fmt.Fprintln(a.stdout, "marina REPL - Type 'exit' to quit")
	}

	scanner := bufio.NewScanner(a.stdin)
	for {
		if interactive {
			fmt.Fprint(a.stdout, "> ")
		}
		if !scanner.Scan() {
			break
		}
		if a.ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		ctx := pipeline.New(
			&lexer.LexerProcessor{},
			&parser.ParserProcessor{},
			&backend.CompileProcessor{},
			backend.NewExecutionProcessor(a.backendFor(project, false)),
		).Run(a.newContext(line, ""))
		a.report(ctx)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(a.stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}
