package main

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dcfrancisco/marina/internal/token"
	"github.com/dcfrancisco/marina/internal/vm"
)

func (s *LanguageServer) handleHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	word := getWordAtPosition(doc.Text, int(params.Position.Line), int(params.Position.Character))
	text := hoverText(doc, word)
	if text == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: text},
	}, nil
}

func hoverText(doc *DocumentState, word string) string {
	if word == "" {
		return ""
	}

	if module, fn, ok := strings.Cut(word, "."); ok {
		if b, found := vm.LookupModuleFunction(module, fn); found {
			return fmt.Sprintf("```\n%s.%s\n```\nnative function of module `%s`", module, signature(b), module)
		}
		return ""
	}

	if b, ok := vm.LookupBuiltin(word); ok {
		return fmt.Sprintf("```\n%s\n```\n%s", signature(b), arityText(b))
	}

	if bundle, ok := doc.Context.Compiled.(*vm.Bundle); ok {
		if addr, found := bundle.Functions[word]; found {
			return fmt.Sprintf("```\nFUNCTION %s\n```\nentry at instruction %04d", word, addr)
		}
	}

	if token.LookupIdent(word) != token.IDENT {
		return fmt.Sprintf("keyword `%s`", strings.ToUpper(word))
	}

	if len(vm.ModuleFunctions(word)) > 0 {
		return fmt.Sprintf("native module `%s`: %s", word, strings.Join(vm.ModuleFunctions(word), ", "))
	}
	return ""
}

func arityText(b *vm.Builtin) string {
	switch {
	case b.MaxArgs < 0:
		return fmt.Sprintf("builtin, at least %d arguments", b.MinArgs)
	case b.MinArgs == b.MaxArgs:
		return fmt.Sprintf("builtin, %d arguments", b.MinArgs)
	default:
		return fmt.Sprintf("builtin, %d-%d arguments", b.MinArgs, b.MaxArgs)
	}
}
