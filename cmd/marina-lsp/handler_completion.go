package main

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dcfrancisco/marina/internal/token"
	"github.com/dcfrancisco/marina/internal/vm"
)

func (s *LanguageServer) handleCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return []protocol.CompletionItem{}, nil
	}
	prefix := getPrefix(doc.Text, int(params.Position.Line), int(params.Position.Character))
	return completionItems(doc, prefix), nil
}

func completionItems(doc *DocumentState, prefix string) []protocol.CompletionItem {
	// After "module." only that module's functions apply
	if dot := strings.LastIndex(prefix, "."); dot >= 0 {
		module := prefix[:dot]
		var items []protocol.CompletionItem
		for _, fn := range vm.ModuleFunctions(module) {
			b, _ := vm.LookupModuleFunction(module, fn)
			items = append(items, item(fn, protocol.CompletionItemKindFunction, module+"."+signature(b)))
		}
		return filterPrefix(items, prefix[dot+1:])
	}

	var items []protocol.CompletionItem
	for _, kw := range token.Keywords() {
		items = append(items, item(kw, protocol.CompletionItemKindKeyword, "keyword"))
	}

	builtins := vm.BuiltinNames()
	sort.Strings(builtins)
	for _, name := range builtins {
		b, _ := vm.LookupBuiltin(name)
		items = append(items, item(name, protocol.CompletionItemKindFunction, signature(b)))
	}

	for _, module := range vm.ModuleNames() {
		items = append(items, item(module, protocol.CompletionItemKindModule, "native module"))
	}

	// User functions from the last successful compile
	if bundle, ok := doc.Context.Compiled.(*vm.Bundle); ok {
		names := make([]string, 0, len(bundle.Functions))
		for name := range bundle.Functions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			items = append(items, item(name, protocol.CompletionItemKindFunction, "FUNCTION "+name))
		}
	}
	return filterPrefix(items, prefix)
}

func item(label string, kind protocol.CompletionItemKind, detail string) protocol.CompletionItem {
	return protocol.CompletionItem{Label: label, Kind: &kind, Detail: &detail}
}

func filterPrefix(items []protocol.CompletionItem, prefix string) []protocol.CompletionItem {
	if prefix == "" {
		return items
	}
	lower := strings.ToLower(prefix)
	out := items[:0]
	for _, it := range items {
		if strings.HasPrefix(strings.ToLower(it.Label), lower) {
			out = append(out, it)
		}
	}
	return out
}

// signature renders a builtin as Name(usage).
func signature(b *vm.Builtin) string {
	if b == nil {
		return ""
	}
	usage := b.Usage
	if usage == "" {
		usage = "()"
		if b.MaxArgs != 0 {
			usage = "(...)"
		}
	}
	return b.Name + usage
}
