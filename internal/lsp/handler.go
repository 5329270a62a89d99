// Package lsp implements the language server handlers for lz.
package lsp

import (
	"fmt"
	"maps"
	"net/url"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"lazy/internal/grammar"
	"lazy/internal/lazy"
	"lazy/internal/stdlib"
)

var log = commonlog.GetLogger("lazy.lsp")

// Handler implements the LSP server handlers for lz documents.
type Handler struct {
	mu       sync.RWMutex
	content  map[string]string
	builtins []string
	modules  []string
	items    []protocol.CompletionItem
}

// NewHandler creates a handler that knows the default builtins and the
// standard modules.
func NewHandler() *Handler {
	h := &Handler{
		content:  make(map[string]string),
		builtins: lazy.New(lazy.Options{}).Interpreter().Builtins().Names(),
		modules:  stdlib.ModuleNames(),
	}
	h.items = completionItems(h.builtins)
	return h
}

// Initialize responds to the LSP client's initialize request and advertises the server's capabilities
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initialize")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider:   ptrBool(false),
				TriggerCharacters: []string{"."},
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Info("shutdown")
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	log.Debugf("trace: %s", params.Value)
	return nil
}

// TextDocumentDidOpen handles file open notifications from the editor
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Infof("opened %s", params.TextDocument.URI)
	return h.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange handles file change notifications. The server
// asks for full sync, so the last change holds the whole document.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Debugf("changed %s", params.TextDocument.URI)

	for i := len(params.ContentChanges) - 1; i >= 0; i-- {
		switch change := params.ContentChanges[i].(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			return h.update(ctx, params.TextDocument.URI, change.Text)
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				return h.update(ctx, params.TextDocument.URI, change.Text)
			}
		}
	}
	return nil
}

// TextDocumentDidClose forgets the document and clears its diagnostics.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Infof("closed %s", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}

	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()

	sendDiagnosticNotification(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

// TextDocumentCompletion offers keywords, builtins and standard module
// members that start with the word at the cursor.
func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	content := h.content[path]
	h.mu.RUnlock()

	prefix := wordBefore(content, params.Position)
	items := []protocol.CompletionItem{}
	for _, item := range h.items {
		if strings.HasPrefix(item.Label, prefix) {
			items = append(items, item)
		}
	}
	return &protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

// TextDocumentSemanticTokensFull handles semantic token requests for the entire document
func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	content, ok := h.content[path]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("document %s is not open", params.TextDocument.URI)
	}

	tokens := collectSemanticTokens(path, content, h.builtins)
	return &protocol.SemanticTokens{Data: encodeSemanticTokens(tokens)}, nil
}

func (h *Handler) update(ctx *glsp.Context, uri protocol.DocumentUri, content string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.content[path] = content
	h.mu.Unlock()

	sendDiagnosticNotification(ctx, uri, Check(path, content, h.modules))
	return nil
}

func completionItems(builtins []string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, kw := range grammar.Keywords {
		items = append(items, protocol.CompletionItem{
			Label: kw,
			Kind:  ptrItemKind(protocol.CompletionItemKindKeyword),
		})
	}
	for _, name := range builtins {
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   ptrItemKind(protocol.CompletionItemKindFunction),
			Detail: ptrString("builtin"),
		})
	}
	for _, module := range stdlib.ModuleNames() {
		def := stdlib.GetModuleDefinition(module)
		items = append(items, protocol.CompletionItem{
			Label: module,
			Kind:  ptrItemKind(protocol.CompletionItemKindModule),
		})
		for _, name := range slices.Sorted(maps.Keys(def.Functions)) {
			fn := def.Functions[name]
			items = append(items, protocol.CompletionItem{
				Label:  module + "." + name,
				Kind:   ptrItemKind(protocol.CompletionItemKindFunction),
				Detail: ptrString(fn.Signature()),
			})
		}
	}
	return items
}

// wordBefore returns the identifier, dots included, that ends at pos.
func wordBefore(content string, pos protocol.Position) string {
	lines := strings.Split(content, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := []rune(lines[pos.Line])
	end := min(int(pos.Character), len(line))
	start := end
	for start > 0 {
		r := line[start-1]
		if r != '_' && r != '.' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			break
		}
		start--
	}
	return string(line[start:end])
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// On Windows, remove the leading slash of /C:/...
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	log.Debugf("publishing %d diagnostics for %s", len(diagnostics), uri)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}

func ptrItemKind(k protocol.CompletionItemKind) *protocol.CompletionItemKind {
	return &k
}
