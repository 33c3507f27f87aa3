package scanner

import (
	"testing"

	"github.com/mna/n7/lang/keyword"
	"github.com/mna/n7/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) ([]token.Token, []token.Value, *ErrorList) {
	t.Helper()
	var errs ErrorList
	fs := token.NewFileSet()
	f := fs.AddFile("test", -1, len(src))

	var s Scanner
	s.Init(f, []byte(src), errs.Add)

	var toks []token.Token
	var vals []token.Value
	for {
		var v token.Value
		tok := s.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	return toks, vals, &errs
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks, vals, errs := scanAll(t, "x = foo\nif then")
	require.Empty(t, errs.Err())
	require.Equal(t, []token.Token{token.IDENT, token.CHARACTER, token.IDENT, token.EOL, token.KEYWORD, token.KEYWORD, token.EOF}, toks)
	require.Equal(t, "x", vals[0].Raw)
	require.Equal(t, "foo", vals[2].Raw)
	require.True(t, vals[3].EOLReal)
	require.Equal(t, keyword.If, vals[4].Keyword)
	require.Equal(t, keyword.Then, vals[5].Keyword)
}

func TestSemicolonIsNonRealEOL(t *testing.T) {
	toks, vals, _ := scanAll(t, "a;b")
	require.Equal(t, []token.Token{token.IDENT, token.EOL, token.IDENT, token.EOF}, toks)
	require.False(t, vals[1].EOLReal)
}

func TestIdentifierTooLong(t *testing.T) {
	long := ""
	for i := 0; i < 65; i++ {
		long += "a"
	}
	_, _, errs := scanAll(t, long)
	require.Error(t, errs.Err())
	require.Contains(t, errs.Err().Error(), "Identifier too long")
}

func TestIdentifierMaxLengthAccepted(t *testing.T) {
	ok := ""
	for i := 0; i < 64; i++ {
		ok += "a"
	}
	_, _, errs := scanAll(t, ok)
	require.NoError(t, errs.Err())
}

func TestNumberPreservesText(t *testing.T) {
	toks, vals, errs := scanAll(t, "3.1400")
	require.NoError(t, errs.Err())
	require.Equal(t, []token.Token{token.NUMBER, token.EOF}, toks)
	require.Equal(t, "3.1400", vals[0].Raw)
	require.True(t, vals[0].IsFloat)
	require.InDelta(t, 3.14, vals[0].Float, 1e-9)
}

func TestIntegerNumber(t *testing.T) {
	_, vals, _ := scanAll(t, "42")
	require.False(t, vals[0].IsFloat)
	require.EqualValues(t, 42, vals[0].Int)
}

func TestString(t *testing.T) {
	toks, vals, errs := scanAll(t, `"hello"`)
	require.NoError(t, errs.Err())
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "hello", vals[0].String)
}

func TestUnterminatedStringAtEOL(t *testing.T) {
	_, _, errs := scanAll(t, "\"hello\nworld\"")
	require.Error(t, errs.Err())
	require.Contains(t, errs.Err().Error(), "End of line / End of file in string constant")
}

func TestUnterminatedStringAtEOF(t *testing.T) {
	_, _, errs := scanAll(t, `"hello`)
	require.Error(t, errs.Err())
	require.Contains(t, errs.Err().Error(), "End of line / End of file in string constant")
}

func TestStringTooLong(t *testing.T) {
	long := make([]byte, 513)
	for i := range long {
		long[i] = 'a'
	}
	_, _, errs := scanAll(t, `"`+string(long)+`"`)
	require.Error(t, errs.Err())
	require.Contains(t, errs.Err().Error(), "String constant too long")
}

func TestStringMaxLengthAccepted(t *testing.T) {
	ok := make([]byte, 512)
	for i := range ok {
		ok[i] = 'a'
	}
	_, _, errs := scanAll(t, `"`+string(ok)+`"`)
	require.NoError(t, errs.Err())
}

func TestComment(t *testing.T) {
	toks, _, errs := scanAll(t, "x = 1 ' a comment\ny")
	require.NoError(t, errs.Err())
	require.Equal(t, []token.Token{
		token.IDENT, token.CHARACTER, token.NUMBER, token.EOL, token.IDENT, token.EOF,
	}, toks)
}

func TestDirectives(t *testing.T) {
	var s Scanner
	fs := token.NewFileSet()
	src := "#win32\n#dbg\n#mem4096\n#unknown\nx"
	f := fs.AddFile("test", -1, len(src))
	var errs ErrorList
	s.Init(f, []byte(src), errs.Add)

	var v token.Value
	for {
		tok := s.Scan(&v)
		if tok == token.EOF {
			break
		}
	}
	require.NoError(t, errs.Err())
	require.Len(t, s.Directives, 3)
	require.Equal(t, "win32", s.Directives[0].Name)
	require.Equal(t, "dbg", s.Directives[1].Name)
	require.Equal(t, "mem", s.Directives[2].Name)
	require.Equal(t, 4096, s.Directives[2].Mem)
}

func TestDelayedLineBump(t *testing.T) {
	var s Scanner
	fs := token.NewFileSet()
	src := "x\n\n\ny"
	f := fs.AddFile("test", -1, len(src))
	var errs ErrorList
	s.Init(f, []byte(src), errs.Add)

	require.Equal(t, 1, s.Line())
	var v token.Value
	s.Scan(&v) // x
	require.Equal(t, 1, s.Line())
	s.Scan(&v) // EOL (1st \n); bump is deferred to the next request
	require.Equal(t, 1, s.Line())
	s.Scan(&v) // EOL (2nd \n); bump for line 1->2 applies now
	require.Equal(t, 2, s.Line())
	s.Scan(&v) // EOL (3rd \n); bump for line 2->3 applies now
	require.Equal(t, 3, s.Line())
	s.Scan(&v) // y; bump for line 3->4 applies now
	require.Equal(t, 4, s.Line())
}

func TestAsmMode(t *testing.T) {
	var s Scanner
	fs := token.NewFileSet()
	src := "push @0\n\nmload .x\nendasm trailing\n"
	f := fs.AddFile("test", -1, len(src))
	var errs ErrorList
	s.Init(f, []byte(src), errs.Add)
	s.EnterAsmMode()

	var v token.Value
	tok := s.Scan(&v)
	require.Equal(t, token.STRING, tok)
	require.Equal(t, "push @0", v.Raw)

	tok = s.Scan(&v)
	require.Equal(t, token.STRING, tok)
	require.Equal(t, "mload .x", v.Raw)

	tok = s.Scan(&v)
	require.Equal(t, token.KEYWORD, tok)
	require.Equal(t, keyword.EndAsm, v.Keyword)

	require.NoError(t, errs.Err())
}
