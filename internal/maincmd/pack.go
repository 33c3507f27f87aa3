package maincmd

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

// packMarker is the sentinel the runtime searches for from the end of the
// file to locate its payload.
const packMarker = "N7PAYLD"

// Pack concatenates a runtime executable and a bytecode file into a
// self-contained native executable: trivial I/O, an out-of-core
// collaborator; it is implemented here only so the CLI can demonstrate
// the full pipeline end-to-end.
func (c *Cmd) Pack(ctx context.Context, stdio mainer.Stdio, args []string) error {
	out := c.Out
	if out == "" {
		out = "a.out"
	}
	if err := PackFile(args[0], args[1], out, c.Dbg, c.Mem); err != nil {
		printPhaseError(stdio.Stdout, "n7b", err)
		return err
	}
	return nil
}

// PackFile writes runtimePath's bytes, then the marker, a debug flag byte,
// a little-endian 32-bit heap size, then bytecodePath's bytes, to out.
func PackFile(runtimePath, bytecodePath, out string, dbg bool, heapSize int) error {
	runtime, err := os.ReadFile(runtimePath)
	if err != nil {
		return fmt.Errorf("Could not open file '%s' for reading", runtimePath)
	}
	bytecode, err := os.ReadFile(bytecodePath)
	if err != nil {
		return fmt.Errorf("Could not open file '%s' for reading", bytecodePath)
	}

	f, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return fmt.Errorf("Could not open file '%s' for writing", out)
	}
	defer f.Close()

	if _, err := f.Write(runtime); err != nil {
		return err
	}
	if _, err := f.WriteString(packMarker); err != nil {
		return err
	}
	dbgByte := byte(0)
	if dbg {
		dbgByte = 1
	}
	if _, err := f.Write([]byte{dbgByte}); err != nil {
		return err
	}
	var heapBuf [4]byte
	binary.LittleEndian.PutUint32(heapBuf[:], uint32(heapSize))
	if _, err := f.Write(heapBuf[:]); err != nil {
		return err
	}
	_, err = f.Write(bytecode)
	return err
}
