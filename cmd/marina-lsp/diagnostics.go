package main

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dcfrancisco/marina/internal/backend"
	"github.com/dcfrancisco/marina/internal/diagnostics"
	"github.com/dcfrancisco/marina/internal/lexer"
	"github.com/dcfrancisco/marina/internal/parser"
	"github.com/dcfrancisco/marina/internal/pipeline"
)

// analyze runs the front end and compiler over text without executing it.
func analyze(path, text string) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(text)
	ctx.FilePath = path
	return pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&backend.CompileProcessor{},
	).Run(ctx)
}

func (s *LanguageServer) handleDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	log.Debugf("opened %s", uri)
	doc := s.update(uri, params.TextDocument.Text)
	publishDiagnostics(ctx, uri, convertDiagnostics(doc.Context.Errors))
	return nil
}

func (s *LanguageServer) handleDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With full sync the last change holds the whole text
	if len(params.ContentChanges) == 0 {
		return nil
	}
	last := params.ContentChanges[len(params.ContentChanges)-1]
	whole, ok := last.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}
	doc := s.update(uri, whole.Text)
	publishDiagnostics(ctx, uri, convertDiagnostics(doc.Context.Errors))
	return nil
}

func (s *LanguageServer) handleDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.mu.Lock()
	delete(s.documents, uri)
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	publishDiagnostics(ctx, uri, []protocol.Diagnostic{})
	return nil
}

func publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, diags []protocol.Diagnostic) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func convertDiagnostics(errs []*diagnostics.DiagnosticError) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(errs))
	source := lspName

	for _, err := range errs {
		span := err.Span()
		severity := protocol.DiagnosticSeverityError
		if err.Severity == diagnostics.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		// LSP positions are 0-based
		start := protocol.Position{Line: protocol.UInteger(span.Line - 1), Character: protocol.UInteger(span.Column - 1)}
		end := protocol.Position{Line: start.Line, Character: start.Character + protocol.UInteger(span.Len)}

		result = append(result, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: string(err.Code)},
			Source:   &source,
			Message:  err.Message,
		})
	}
	return result
}
