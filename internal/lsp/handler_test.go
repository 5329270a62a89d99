package lsp_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"lazy/internal/lsp"
)

const uri = "file:///tmp/sample.lz"

const sample = `import math;
# squares
def scale(xs, k=2) {
    return [x * k for x in xs];
}
print(len(scale([1, 2])), math.pi);
`

// recorder collects the diagnostics the handler publishes.
type recorder struct {
	published []*protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				r.published = append(r.published, params.(*protocol.PublishDiagnosticsParams))
			}
		},
	}
}

func (r *recorder) last(t *testing.T) []protocol.Diagnostic {
	t.Helper()
	require.NotEmpty(t, r.published)
	return r.published[len(r.published)-1].Diagnostics
}

func open(t *testing.T, h *lsp.Handler, r *recorder, text string) {
	t.Helper()
	err := h.TextDocumentDidOpen(r.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "lz", Text: text},
	})
	require.NoError(t, err)
}

func TestDiagnosticsOnOpenAndChange(t *testing.T) {
	h, r := lsp.NewHandler(), &recorder{}

	open(t, h, r, sample)
	assert.Empty(t, r.last(t))

	err := h.TextDocumentDidChange(r.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "x = ;\n"}},
	})
	require.NoError(t, err)

	diagnostics := r.last(t)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, uint32(0), diagnostics[0].Range.Start.Line)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diagnostics[0].Severity)
	assert.Equal(t, "E0100", diagnostics[0].Code.Value)

	err = h.TextDocumentDidClose(r.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	assert.Empty(t, r.last(t))
}

func TestCheck(t *testing.T) {
	diagnostics := lsp.Check("t.lz", "import nosuch;\n", []string{"math"})
	require.Len(t, diagnostics, 1)
	assert.Equal(t, "E0300", diagnostics[0].Code.Value)

	diagnostics = lsp.Check("t.lz", "def f() {\n    return 1;\n    x = 2;\n}\n", nil)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *diagnostics[0].Severity)
	assert.Equal(t, uint32(2), diagnostics[0].Range.Start.Line)

	assert.NotNil(t, lsp.Check("t.lz", "x = 1;\n", nil))
}

func TestCompletion(t *testing.T) {
	h, r := lsp.NewHandler(), &recorder{}
	open(t, h, r, "x = ma\ny = math.sq\n")

	labels := func(line, char uint32) []string {
		result, err := h.TextDocumentCompletion(r.context(), &protocol.CompletionParams{
			TextDocumentPositionParams: protocol.TextDocumentPositionParams{
				TextDocument: protocol.TextDocumentIdentifier{URI: uri},
				Position:     protocol.Position{Line: line, Character: char},
			},
		})
		require.NoError(t, err)
		var out []string
		for _, item := range result.(*protocol.CompletionList).Items {
			out = append(out, item.Label)
		}
		return out
	}

	prefixed := labels(0, 6)
	assert.Subset(t, prefixed, []string{"map", "max", "math", "math.sqrt"})
	assert.NotContains(t, prefixed, "min")
	assert.Equal(t, []string{"math.sqrt"}, labels(1, 11))
	assert.Contains(t, labels(0, 0), "lambda")
}

func TestTextDocumentSemanticTokensFull(t *testing.T) {
	h, r := lsp.NewHandler(), &recorder{}
	open(t, h, r, sample)

	tokens, err := h.TextDocumentSemanticTokensFull(r.context(), &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err)
	require.Len(t, decoded, 24)

	assertToken(t, &decoded[0], 1, 1, 6, "keyword", nil)
	assertToken(t, &decoded[1], 1, 8, 4, "namespace", nil)
	assertToken(t, &decoded[2], 2, 1, 9, "comment", nil)
	assertToken(t, &decoded[3], 3, 1, 3, "keyword", nil)
	assertToken(t, &decoded[4], 3, 5, 5, "function", []string{"declaration"})
	assertToken(t, &decoded[5], 3, 11, 2, "parameter", []string{"declaration"})
	assertToken(t, &decoded[6], 3, 15, 1, "parameter", []string{"declaration"})
	assertToken(t, &decoded[7], 3, 16, 1, "operator", nil)
	assertToken(t, &decoded[8], 3, 17, 1, "number", nil)
	assertToken(t, &decoded[9], 4, 5, 6, "keyword", nil)
	assertToken(t, &decoded[10], 4, 13, 1, "variable", nil)
	assertToken(t, &decoded[11], 4, 15, 1, "operator", nil)
	assertToken(t, &decoded[12], 4, 17, 1, "variable", nil)
	assertToken(t, &decoded[13], 4, 19, 3, "keyword", nil)
	assertToken(t, &decoded[14], 4, 23, 1, "variable", nil)
	assertToken(t, &decoded[15], 4, 25, 2, "keyword", nil)
	assertToken(t, &decoded[16], 4, 28, 2, "variable", nil)
	assertToken(t, &decoded[17], 6, 1, 5, "function", []string{"defaultLibrary"})
	assertToken(t, &decoded[18], 6, 7, 3, "function", []string{"defaultLibrary"})
	assertToken(t, &decoded[19], 6, 11, 5, "variable", nil)
	assertToken(t, &decoded[20], 6, 18, 1, "number", nil)
	assertToken(t, &decoded[21], 6, 21, 1, "number", nil)
	assertToken(t, &decoded[22], 6, 27, 4, "variable", nil)
	assertToken(t, &decoded[23], 6, 32, 2, "property", nil)
}

func TestSemanticTokensNeedOpenDocument(t *testing.T) {
	_, err := lsp.NewHandler().TextDocumentSemanticTokensFull(&glsp.Context{}, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///tmp/closed.lz"},
	})
	assert.Error(t, err)
}

type DecodedToken struct {
	Index     int
	Line      uint32
	Char      uint32
	Length    uint32
	Type      string
	Modifiers []string
}

func decodeSemanticTokens(raw []uint32) ([]DecodedToken, error) {
	if len(raw)%5 != 0 {
		return nil, fmt.Errorf("raw token data length %d is not a multiple of 5", len(raw))
	}

	var (
		decoded []DecodedToken
		line    uint32
		char    uint32
	)

	for i := 0; i < len(raw); i += 5 {
		deltaLine := raw[i]
		deltaStart := raw[i+1]
		length := raw[i+2]
		tokenTypeIdx := raw[i+3]
		tokenModMask := raw[i+4]

		if deltaLine == 0 {
			char += deltaStart
		} else {
			line += deltaLine
			char = deltaStart
		}

		var modifiers []string
		for j, name := range lsp.SemanticTokenModifiers {
			if tokenModMask&(1<<j) != 0 {
				modifiers = append(modifiers, name)
			}
		}

		decoded = append(decoded, DecodedToken{
			Index:     i / 5,
			Line:      line + 1, // LSP uses 0-based indexing
			Char:      char + 1, // LSP uses 0-based indexing
			Length:    length,
			Type:      lsp.SemanticTokenTypes[tokenTypeIdx],
			Modifiers: modifiers,
		})
	}

	return decoded, nil
}

func assertToken(t *testing.T, token *DecodedToken, expectedLine, expectedChar, expectedLength uint32, expectedType string, expectedModifiers []string) {
	require.Equal(t, expectedLine, token.Line, "line mismatch (expected line %d)", expectedLine)
	require.Equal(t, expectedChar, token.Char, "char mismatch (expected char %d)", expectedChar)
	require.Equal(t, expectedLength, token.Length, "length mismatch")
	require.Equal(t, expectedType, token.Type, "type mismatch")
	require.ElementsMatch(t, expectedModifiers, token.Modifiers, "modifiers mismatch")
}
