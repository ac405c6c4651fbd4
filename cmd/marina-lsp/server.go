package main

import (
	"net/url"
	"sync"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/dcfrancisco/marina/internal/config"
	"github.com/dcfrancisco/marina/internal/pipeline"
)

const lspName = "marina-lsp"

var log = commonlog.GetLogger(lspName)

// DocumentState is the latest text of an open document and its analysis.
type DocumentState struct {
	Text    string
	Context *pipeline.PipelineContext
}

// LanguageServer keeps open documents and answers editor requests.
type LanguageServer struct {
	mu        sync.RWMutex
	documents map[protocol.DocumentUri]*DocumentState

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

func NewLanguageServer() *LanguageServer {
	s := &LanguageServer{
		documents: make(map[protocol.DocumentUri]*DocumentState),
		version:   config.Version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.handleInitialize,
		Initialized: s.handleInitialized,
		Shutdown:    s.handleShutdown,
		SetTrace:    s.handleSetTrace,

		TextDocumentDidOpen:   s.handleDidOpen,
		TextDocumentDidChange: s.handleDidChange,
		TextDocumentDidClose:  s.handleDidClose,

		TextDocumentCompletion: s.handleCompletion,
		TextDocumentHover:      s.handleHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)
	return s
}

// Run serves on stdio until the client disconnects.
func (s *LanguageServer) Run() error {
	return s.server.RunStdio()
}

// document returns the state of an open document, or nil.
func (s *LanguageServer) document(uri protocol.DocumentUri) *DocumentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents[uri]
}

// update analyzes text and stores it as the current state of uri.
func (s *LanguageServer) update(uri protocol.DocumentUri, text string) *DocumentState {
	doc := &DocumentState{Text: text, Context: analyze(uriToPath(uri), text)}
	s.mu.Lock()
	s.documents[uri] = doc
	s.mu.Unlock()
	return doc
}

func uriToPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	return u.Path
}
