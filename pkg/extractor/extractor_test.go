package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/julie/pkg/parser"
	"github.com/kraklabs/julie/pkg/parser/queries"
	"github.com/kraklabs/julie/pkg/symbols"
)

const testWorkspaceID = "ws-test"

func setupExtractor(_ *testing.T) *Extractor {
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	return NewExtractor(pm, qm, nil)
}

func symbolsByName(syms []symbols.Symbol) map[string]symbols.Symbol {
	out := make(map[string]symbols.Symbol, len(syms))
	for _, s := range syms {
		out[s.Name] = s
	}
	return out
}

func TestExtractFile_TypeScript(t *testing.T) {
	e := setupExtractor(t)

	filePath := filepath.Join("testdata", "sample.ts")
	sourceCode, err := os.ReadFile(filePath)
	require.NoError(t, err)

	result, err := e.ExtractFile(testWorkspaceID, filePath, sourceCode)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "typescript", result.Language)
	assert.NotEmpty(t, result.Symbols)

	byName := symbolsByName(result.Symbols)

	vector, ok := byName["Vector"]
	require.True(t, ok, "should find Vector class")
	assert.Equal(t, symbols.KindClass, vector.Kind)

	length, ok := byName["length"]
	require.True(t, ok, "should find length method")
	assert.Equal(t, symbols.KindMethod, length.Kind)
	assert.Equal(t, vector.ID, length.ParentID, "length should be parented under Vector")

	distance, ok := byName["distance"]
	require.True(t, ok, "should find distance function")
	assert.Equal(t, symbols.KindFunction, distance.Kind)

	// distance calls Math.sqrt, which should surface as a call identifier
	// attributed to the distance function.
	var sawSqrtCall bool
	for _, rel := range result.Relationships {
		if rel.FromSymbolID == distance.ID && rel.ToName == "sqrt" && rel.Kind == symbols.RelCalls {
			sawSqrtCall = true
		}
	}
	assert.True(t, sawSqrtCall, "expected a calls relationship from distance to sqrt")
}

func TestExtractFile_Go(t *testing.T) {
	e := setupExtractor(t)

	filePath := filepath.Join("testdata", "sample.go")
	sourceCode, err := os.ReadFile(filePath)
	require.NoError(t, err)

	result, err := e.ExtractFile(testWorkspaceID, filePath, sourceCode)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "go", result.Language)
	byName := symbolsByName(result.Symbols)

	greeter, ok := byName["Greeter"]
	require.True(t, ok, "should find Greeter struct")
	assert.Equal(t, symbols.KindStruct, greeter.Kind)
	assert.Equal(t, symbols.VisibilityPublic, greeter.Visibility, "Greeter is capitalized, so public")

	greet, ok := byName["Greet"]
	require.True(t, ok, "should find Greet method")
	assert.Equal(t, symbols.KindMethod, greet.Kind)
	assert.NotEmpty(t, greet.DocComment)

	suffix, ok := byName["buildSuffix"]
	require.True(t, ok)
	assert.Equal(t, symbols.VisibilityPrivate, suffix.Visibility, "lowercase first letter is unexported")

	var sawBuildSuffixCall bool
	for _, rel := range result.Relationships {
		if rel.FromSymbolID == greet.ID && rel.ToName == "buildSuffix" {
			sawBuildSuffixCall = true
		}
	}
	assert.True(t, sawBuildSuffixCall, "expected Greet to call buildSuffix")
}

func TestExtractFile_Python(t *testing.T) {
	e := setupExtractor(t)

	filePath := filepath.Join("testdata", "sample.py")
	sourceCode, err := os.ReadFile(filePath)
	require.NoError(t, err)

	result, err := e.ExtractFile(testWorkspaceID, filePath, sourceCode)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "python", result.Language)
	byName := symbolsByName(result.Symbols)

	service, ok := byName["UserService"]
	require.True(t, ok, "should find UserService class")
	assert.Equal(t, symbols.KindClass, service.Kind)

	fetch, ok := byName["_fetch"]
	require.True(t, ok, "should find _fetch method")
	assert.Equal(t, symbols.VisibilityPrivate, fetch.Visibility, "leading underscore convention")
	assert.Equal(t, service.ID, fetch.ParentID)

	findUser, ok := byName["find_user"]
	require.True(t, ok)
	assert.Equal(t, symbols.VisibilityPublic, findUser.Visibility)
}

func TestExtractFile_UnsupportedExtension(t *testing.T) {
	e := setupExtractor(t)

	_, err := e.ExtractFile(testWorkspaceID, "sample.unknownlang", []byte("whatever"))
	assert.Error(t, err)
}

func TestExtractFile_RecognizedButUnwiredLanguage(t *testing.T) {
	e := setupExtractor(t)

	_, err := e.ExtractFile(testWorkspaceID, "sample.php", []byte("<?php echo 1; ?>"))
	assert.Error(t, err, "PHP is recognized but has no wired grammar")
}

func TestExtractFile_IDsAreStableAcrossRuns(t *testing.T) {
	e := setupExtractor(t)

	filePath := filepath.Join("testdata", "sample.go")
	sourceCode, err := os.ReadFile(filePath)
	require.NoError(t, err)

	first, err := e.ExtractFile(testWorkspaceID, filePath, sourceCode)
	require.NoError(t, err)
	second, err := e.ExtractFile(testWorkspaceID, filePath, sourceCode)
	require.NoError(t, err)

	require.Equal(t, len(first.Symbols), len(second.Symbols))
	for i := range first.Symbols {
		assert.Equal(t, first.Symbols[i].ID, second.Symbols[i].ID)
	}
}
