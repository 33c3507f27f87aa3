package asm_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/n7/asm"
	"github.com/mna/n7/internal/filetest"
)

var testUpdateGoldenTests = flag.Bool("test.update-asm-golden-tests", false, "If set, replace expected assembler golden results with actual results.")

// TestAssembleDisassembleGolden feeds each .asm fixture under testdata/in
// through the full assemble (with peephole optimization) and disassemble
// round trip, diffing the result against the golden file under
// testdata/out. This is what exercises the peephole-fused synthetic
// opcodes end to end, including the name and count/name operands they
// carry, rather than just asserting on the fused mnemonic.
func TestAssembleDisassembleGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".asm") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			res, err := asm.Assemble(src, asm.Options{Optimize: true})
			if err != nil {
				t.Fatal(err)
			}

			out, err := asm.Disassemble(res.Code, nil)
			if err != nil {
				t.Fatal(err)
			}

			filetest.DiffOutput(t, fi, out, resultDir, testUpdateGoldenTests)
		})
	}
}
