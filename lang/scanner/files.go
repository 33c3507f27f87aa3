package scanner

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/n7/lang/token"
)

// TokenValue pairs a scanned Token with its Value, for callers (like the
// CLI's tokenize command) that want the full stream of one or more files
// rather than driving Scan themselves.
type TokenValue struct {
	Token token.Token
	Value token.Value
}

// ScanFiles reads and tokenizes each of files in order, returning the
// shared FileSet used to register them and, for each file, its token
// stream. Reading or scanning errors are accumulated into the returned
// error (an ErrorList) rather than stopping at the first failure, so a
// caller can still inspect whatever files did succeed.
func ScanFiles(ctx context.Context, files ...string) (*token.FileSet, [][]TokenValue, error) {
	fs := token.NewFileSet()
	var errs ErrorList
	results := make([][]TokenValue, 0, len(files))

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return fs, results, err
		}
		data, err := os.ReadFile(name)
		if err != nil {
			errs.Add(token.Position{Filename: name}, fmt.Sprintf("Could not open file '%s' for reading", name))
			continue
		}
		f := fs.AddFile(name, -1, len(data))
		var s Scanner
		s.Init(f, data, errs.Add)

		var toks []TokenValue
		for {
			var v token.Value
			tok := s.Scan(&v)
			toks = append(toks, TokenValue{Token: tok, Value: v})
			if tok == token.EOF {
				break
			}
		}
		results = append(results, toks)
	}
	return fs, results, errs.Err()
}
