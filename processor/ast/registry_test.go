package ast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeParser records the paths it was asked to parse.
type fakeParser struct {
	lang  string
	calls []string
}

func (p *fakeParser) ParseFile(_ context.Context, filePath string) *ParsedSourceFile {
	p.calls = append(p.calls, filePath)
	f := NewParsedSourceFile(filePath, p.lang)
	f.Functions = append(f.Functions, FunctionSignature{Name: "handler"})
	return f
}

func TestParserRegistry_Register(t *testing.T) {
	r := NewParserRegistry()
	first := &fakeParser{lang: "first"}
	second := &fakeParser{lang: "second"}

	r.Register("first", []string{".ts", ".JS"}, func() FileParser { return first })
	r.Register("second", []string{".ts", ".py"}, func() FileParser { return second })

	name, ok := r.GetParserName(".ts")
	require.True(t, ok)
	assert.Equal(t, "first", name, "first registration wins on conflict")

	name, ok = r.GetParserName(".js")
	require.True(t, ok)
	assert.Equal(t, "first", name, "extensions are case-insensitive")

	name, ok = r.GetParserName(".py")
	require.True(t, ok)
	assert.Equal(t, "second", name)

	_, ok = r.GetParserName(".go")
	assert.False(t, ok)

	assert.Equal(t, []string{"first", "second"}, r.ListParsers())
	assert.Equal(t, []string{".js", ".py", ".ts"}, r.ListExtensions())
	assert.True(t, r.HasParser("second"))
	assert.False(t, r.HasParser("third"))
}

func TestParserRegistry_CreateParser(t *testing.T) {
	r := NewParserRegistry()
	r.Register("fake", []string{".ts"}, func() FileParser { return &fakeParser{lang: "fake"} })

	p, err := r.CreateParser("fake")
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = r.CreateParser("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parser not registered")

	_, err = r.CreateParserForExtension(".rb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no parser registered for extension")
}

func TestParserRegistry_ParseFile(t *testing.T) {
	r := NewParserRegistry()
	fake := &fakeParser{lang: "fake"}
	r.Register("fake", []string{".ts"}, func() FileParser { return fake })

	f := r.ParseFile(context.Background(), "src/auth.ts")
	assert.False(t, f.HasParseErrors())
	assert.Equal(t, "fake", f.Language)
	assert.Equal(t, []string{"src/auth.ts"}, fake.calls)

	unknown := r.ParseFile(context.Background(), "README.md")
	assert.True(t, unknown.HasParseErrors())
	assert.Empty(t, unknown.Functions)
}
