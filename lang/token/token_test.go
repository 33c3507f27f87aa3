package token

import (
	"testing"

	"github.com/mna/n7/lang/keyword"
	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := Token(0); tok < maxToken; tok++ {
		require.NotEmpty(t, tok.String())
	}
}

func TestLiteral(t *testing.T) {
	v := Value{Raw: "x", String: "hi", Char: 'c'}
	require.Equal(t, "x", IDENT.Literal(v))
	require.Equal(t, `"hi"`, STRING.Literal(v))
	require.Equal(t, "'c'", CHARACTER.Literal(v))
	require.Equal(t, "", EOF.Literal(v))

	kv := Value{Raw: "function", Keyword: keyword.Function}
	require.Equal(t, "function", KEYWORD.Literal(kv))
}
