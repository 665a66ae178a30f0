package pyscribe

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const downloadFixture = `"""Drive download helpers."""
import io
from typing import Iterator, Optional

CHUNK = 1024 * 1024


def download_iter(
    service,
    file_id: str,
    chunk_size: int = CHUNK,
) -> Iterator[bytes]:
    """
    Stream file content from Google Drive in chunks.

    Yields raw bytes as they arrive.
    """

    def _stream() -> Iterator[bytes]:
        request = service.files().get_media(fileId=file_id)
        buf = io.BytesIO()
        yield buf.getvalue()

    return _stream()


class Downloader(object):
    def __init__(self, service, retries: Optional[int] = None):
        self.service = service
`

func findItem(items []Item, rule Rule, name string) *Item {
	for i := range items {
		if items[i].Rule != rule {
			continue
		}
		if name == "" || (items[i].Name != nil && *items[i].Name == name) {
			return &items[i]
		}
	}
	return nil
}

func TestParseFunctionAndModuleDocstring(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		funcLine int
		docLine  int
	}{
		{"as_written", "def foo():\n    pass\n\n\"\"\"module level doc\"\"\"\n", 1, 4},
		{"leading_newline", "\ndef foo():\n    pass\n\n\"\"\"module level doc\"\"\"\n", 2, 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items, err := Parse(tc.content)
			require.NoError(t, err)
			require.Len(t, items, 2)

			fn := findItem(items, FunctionDef, "foo")
			require.NotNil(t, fn)
			require.Equal(t, "def foo():", *fn.Signature)
			require.Equal(t, tc.funcLine, fn.Line)
			require.Equal(t, 1, fn.Column)
			require.Nil(t, fn.Docstring)

			doc := findItem(items, Docstring, "")
			require.NotNil(t, doc)
			require.Equal(t, "module level doc", *doc.Docstring)
			require.Equal(t, tc.docLine, doc.Line)
			require.Nil(t, doc.Name)
			require.Nil(t, doc.Signature)
		})
	}
}

func TestParseEmptyContent(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\n", " \t\r\n "} {
		_, err := Parse(content)
		require.Error(t, err)
		require.True(t, IsCode(err, CodeEmptyContent), "content %q: %v", content, err)
	}
}

func TestParseUnterminatedDocstring(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
	}{
		{"first_line", "\"\"\"still open\ndef foo():\n    pass\n", 1},
		{"leading_newline", "\n\"\"\"still open\ndef foo():\n    pass\n", 2},
		{"inside_function", "def broken():\n    \"\"\"Missing end\n", 2},
		{"after_closed_pair", "\"\"\"ok\"\"\"\nx = 1\n\"\"\"dangling\n", 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, p := range []Parser{{}, {SkipValidation: true}} {
				_, err := p.Parse(tc.content)
				require.Error(t, err)

				var pe *Error
				require.ErrorAs(t, err, &pe)
				require.Equal(t, CodeUnterminatedDocstring, pe.Code, "skip validation: %v", p.SkipValidation)
				require.Equal(t, tc.line, pe.Line, "skip validation: %v", p.SkipValidation)
			}
		})
	}
}

func TestParseNormalizesMultilineDocstring(t *testing.T) {
	content := "\"\"\"\n    Summary line\n\n        Details with indent\n\"\"\"\n"

	items, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, Docstring, items[0].Rule)
	require.Equal(t, "Summary line\n\nDetails with indent", *items[0].Docstring)
}

func TestParseImports(t *testing.T) {
	items, err := Parse("import os\nfrom collections import deque\n")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, Import, items[0].Rule)
	assert.True(t, strings.HasPrefix(items[0].Content, "import "))
	assert.Equal(t, "import os", *items[0].Name)
	assert.Equal(t, 1, items[0].Line)

	assert.Equal(t, Import, items[1].Rule)
	assert.True(t, strings.HasPrefix(items[1].Content, "from "))
	assert.Equal(t, "from collections import deque", *items[1].Signature)
	assert.Equal(t, 2, items[1].Line)
}

func TestParseImportInsideStringLiteral(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"quoted_line", "\nprint(\"nothing to see here\")\n\n\"import foo\"  # string literal\n"},
		{"call_argument", "run(\"import foo\")\n"},
		{"assignment", "x = 'from a import b'\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			items, err := Parse(tc.content)
			require.NoError(t, err)
			require.Nil(t, findItem(items, Import, ""))
			require.Nil(t, findItem(items, FunctionDef, ""))
		})
	}
}

func TestParseDecoratedClass(t *testing.T) {
	items, err := Parse("\n@decorator\nclass Widget(Base):\n    pass\n")
	require.NoError(t, err)

	class := findItem(items, ClassDef, "Widget")
	require.NotNil(t, class)
	require.Equal(t, "class Widget(Base):", *class.Signature)
	require.Equal(t, 2, class.Line)
	require.Equal(t, "@decorator\nclass Widget(Base):", class.Content)
}

func TestParseDownloadFixture(t *testing.T) {
	items, err := Parse(downloadFixture)
	require.NoError(t, err)

	require.NotNil(t, findItem(items, Import, ""))

	fn := findItem(items, FunctionDef, "download_iter")
	require.NotNil(t, fn)
	require.Equal(t, "def download_iter(", *fn.Signature)
	require.Equal(t, 8, fn.Line)

	nested := findItem(items, FunctionDef, "_stream")
	require.NotNil(t, nested)
	require.Equal(t, "def _stream() -> Iterator[bytes]:", *nested.Signature)
	require.Equal(t, 19, nested.Line)

	var docs []string
	for _, item := range items {
		if item.Rule == Docstring {
			docs = append(docs, *item.Docstring)
		}
	}
	require.Equal(t, []string{
		"Drive download helpers.",
		"Stream file content from Google Drive in chunks.\n\nYields raw bytes as they arrive.",
	}, docs)

	class := findItem(items, ClassDef, "Downloader")
	require.NotNil(t, class)
	require.Equal(t, "class Downloader(object):", *class.Signature)

	ctor := findItem(items, FunctionDef, "__init__")
	require.NotNil(t, ctor)
	require.Equal(t, "def __init__(self, service, retries: Optional[int] = None):", *ctor.Signature)
}

func TestParseItemsInDocumentOrder(t *testing.T) {
	items, err := Parse(downloadFixture)
	require.NoError(t, err)

	var rules []string
	for _, item := range items {
		rules = append(rules, item.Rule.String())
	}
	require.Equal(t, []string{
		"Docstring", "Import", "Import",
		"FunctionDef", "Docstring", "FunctionDef",
		"ClassDef", "FunctionDef",
	}, rules)

	for i := 1; i < len(items); i++ {
		require.Greater(t, items[i].Line, items[i-1].Line)
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	_, err := Parse("def ok():\n    x = '\xff'\n")
	require.Error(t, err)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, CodeSyntax, pe.Code)
	require.Equal(t, 2, pe.Line)
	require.Equal(t, 10, pe.Column)
	require.Equal(t, "2:10: expected function_def, class_def, docstring, import_stmt or ANY", pe.Message)
}

func TestParseWithModule(t *testing.T) {
	located, err := ParseWithModule("def foo():\n    pass\n", "pkg.mod")
	require.NoError(t, err)
	require.Len(t, located, 1)
	require.Equal(t, "pkg.mod", *located[0].Module)
	require.Nil(t, located[0].Source)
	require.Equal(t, "foo", *located[0].Name)

	_, err = ParseWithModule("", "pkg.mod")
	require.True(t, IsCode(err, CodeEmptyContent))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "pkg.mod", pe.Context[CtxModule])
}

func TestLocate(t *testing.T) {
	items, err := Parse("import os\n")
	require.NoError(t, err)

	located := Locate(items, "", "a.py")
	require.Len(t, located, 1)
	require.Nil(t, located[0].Module)
	require.Equal(t, "a.py", *located[0].Source)
	require.Equal(t, items[0], located[0].Item)
}

// Properties that hold for any input.

var propertyInputs = []string{
	downloadFixture,
	"def foo():\n    pass\n\n\"\"\"module level doc\"\"\"\n",
	"\n@decorator\nclass Widget(Base):\n    pass\n",
	"import os\nfrom collections import deque\n",
	"x = 1\ny = 'def not_a_function(): pass'\n",
	"class Ünïcode:\n    \"\"\"Dokumentation für Ünïcode.\"\"\"\n    def größe(self): return 1\n",
	"async def fetch(url: str) -> bytes:\n    ...\n",
	"from . import (\n    a,\n    b,\n)\nimport sys\n",
	"print('no structure here')\n",
}

func TestPropertyNoUnterminatedWithoutTripleQuote(t *testing.T) {
	for _, content := range propertyInputs {
		if strings.Contains(content, tripleQuote) {
			continue
		}
		_, err := Parse(content)
		require.False(t, IsCode(err, CodeUnterminatedDocstring), "content %q", content)
	}
}

func TestPropertyDeterministic(t *testing.T) {
	for _, content := range propertyInputs {
		first, err1 := Parse(content)
		second, err2 := Parse(content)
		require.Equal(t, err1, err2)
		require.Equal(t, first, second)
	}
}

func TestPropertyPositionRoundTrip(t *testing.T) {
	for _, content := range propertyInputs {
		items, err := Parse(content)
		require.NoError(t, err, "content %q", content)

		for _, item := range items {
			off := offsetOf(t, content, item.Line, item.Column)
			rest := strings.TrimLeft(content[off:], " \t")
			require.True(t, strings.HasPrefix(rest, item.Content),
				"item %s at %d:%d does not start its content", item.Rule, item.Line, item.Column)
		}
	}
}

func TestPropertyDocstringInvariant(t *testing.T) {
	for _, content := range propertyInputs {
		items, err := Parse(content)
		require.NoError(t, err)
		for _, item := range items {
			require.Equal(t, item.Rule == Docstring, item.Docstring != nil)
			if item.Docstring != nil {
				require.Equal(t, *item.Docstring, normalizeDocstring(*item.Docstring))
			}
		}
	}
}

// offsetOf converts a 1-based line and rune column back to a byte offset.
func offsetOf(t *testing.T, content string, line, column int) int {
	t.Helper()

	off := 0
	for l := 1; l < line; l++ {
		i := strings.IndexByte(content[off:], '\n')
		require.GreaterOrEqual(t, i, 0, "line %d out of range", line)
		off += i + 1
	}
	for c := 1; c < column; c++ {
		_, size := utf8.DecodeRuneInString(content[off:])
		off += size
	}
	return off
}
