package peephole

// Fuse rewrites lines, replacing each recognised instruction sequence
// with its synthetic fused opcode. It buffers a small sliding window of
// pending non-meta instructions and retries the pattern table after every
// new line, until the window settles: no pattern matches the head, or the
// only match available could still grow into a longer, more specific one.
func Fuse(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	var pending []Line // buffered non-meta instruction lines, labels excluded

	flush := func(upTo int) {
		out = append(out, pending[:upTo]...)
		pending = pending[upTo:]
	}

	// settle drains as many matches as possible from the head of pending.
	// final means no further line will ever be appended (a label/meta
	// boundary, or end of input), so a shorter match must be taken now even
	// if, in principle, more lines could have grown it into a longer one.
	settle := func(final bool) {
		for {
			if fused, n, ok := matchMALS(pending); ok {
				pending = append([]Line{fused}, pending[n:]...)
				continue
			}
			if fused, n, ok := matchMSSP(pending); ok {
				pending = append([]Line{fused}, pending[n:]...)
				continue
			}
			if fused, n, ok := matchLoadParam(pending); ok {
				pending = append([]Line{fused}, pending[n:]...)
				continue
			}
			if fused, n, ok := matchPVal(pending); ok {
				pending = append([]Line{fused}, pending[n:]...)
				continue
			}
			// matchSingleVar's bare "mload X" form shares its leading line
			// with matchPVal's pattern: don't let it claim that line while
			// matchPVal could still complete against it (fewer than its 3
			// lines buffered so far).
			if !final && len(pending) > 0 && len(pending) < 3 && mn(pending[0]) == "mload" {
				return
			}
			if fused, n, ok := matchSingleVar(pending); ok {
				pending = append([]Line{fused}, pending[n:]...)
				continue
			}
			return
		}
	}

	for _, l := range lines {
		if l.IsMeta {
			settle(true)
			flush(len(pending))
			out = append(out, l)
			continue
		}
		if l.Label != "" {
			// A label boundary breaks any in-progress fusion: none of the fused
			// patterns have a label in their interior.
			settle(true)
			flush(len(pending))
			out = append(out, l)
			continue
		}
		pending = append(pending, l)
		settle(false)

		// Once the window can no longer grow into a longer match (it already
		// holds more lines than the longest pattern needs), flush all but the
		// last `longest` lines so memory stays bounded.
		const longest = 6 // matchLoadParam's pattern is the longest, at 6 lines
		if len(pending) > longest {
			flush(len(pending) - longest)
		}
	}
	settle(true)
	flush(len(pending))
	return out
}

func mn(l Line) string { return l.Mnemonic }

func opnd(l Line, i int) string {
	if i < len(l.Operands) {
		return l.Operands[i]
	}
	return ""
}

// matchMALS recognises "madd X; mload X; mswap" -> "opt_mals X".
func matchMALS(p []Line) (Line, int, bool) {
	if len(p) < 3 {
		return Line{}, 0, false
	}
	a, b, c := p[0], p[1], p[2]
	if mn(a) == "madd" && mn(b) == "mload" && mn(c) == "mswap" && opnd(a, 0) == opnd(b, 0) {
		return Line{No: a.No, Mnemonic: "opt_mals", Operands: []string{opnd(a, 0)}}, 3, true
	}
	return Line{}, 0, false
}

// matchMSSP recognises "mswap; mset X; mpop" -> "opt_mssp X".
func matchMSSP(p []Line) (Line, int, bool) {
	if len(p) < 3 {
		return Line{}, 0, false
	}
	a, b, c := p[0], p[1], p[2]
	if mn(a) == "mswap" && mn(b) == "mset" && mn(c) == "mpop" {
		return Line{No: a.No, Mnemonic: "opt_mssp", Operands: []string{opnd(b, 0)}}, 3, true
	}
	return Line{}, 0, false
}

// matchLoadParam recognises:
//
//	madd X; mpush; mload X; pop @0; mset @0; mpop
//
// -> "opt_loadparam X".
func matchLoadParam(p []Line) (Line, int, bool) {
	if len(p) < 6 {
		return Line{}, 0, false
	}
	a, b, c, d, e, f := p[0], p[1], p[2], p[3], p[4], p[5]
	if mn(a) == "madd" && mn(b) == "mpush" && mn(c) == "mload" && opnd(a, 0) == opnd(c, 0) &&
		mn(d) == "pop" && opnd(d, 0) == "@0" &&
		mn(e) == "mset" && opnd(e, 0) == "@0" &&
		mn(f) == "mpop" {
		return Line{No: a.No, Mnemonic: "opt_loadparam", Operands: []string{opnd(a, 0)}}, 6, true
	}
	return Line{}, 0, false
}

// matchSingleVar recognises a single-variable load, either inside the
// current memory ("mload X" with no preceding mpush of a different
// memory context) or explicitly from program memory ("loadpm; mload X").
// Both reduce to one opcode carrying the name operand; the distinction between "current
// memory" and "program memory" is which mnemonic sequence precedes the
// mload, so a bare "mload X" fuses to opt_loadsinglevar and
// "loadpm; mload X" fuses to opt_loadsinglevarg.
func matchSingleVar(p []Line) (Line, int, bool) {
	if len(p) >= 2 && mn(p[0]) == "loadpm" && mn(p[1]) == "mload" {
		return Line{No: p[0].No, Mnemonic: "opt_loadsinglevarg", Operands: []string{opnd(p[1], 0)}}, 2, true
	}
	if len(p) >= 1 && mn(p[0]) == "mload" {
		return Line{No: p[0].No, Mnemonic: "opt_loadsinglevar", Operands: []string{opnd(p[0], 0)}}, 1, true
	}
	return Line{}, 0, false
}

// matchPVal recognises the function-entry parameter-count check:
//
//	mload X; ldi N; assert @0 @1
//
// -> "opt_pval N X". The leading "mload X" carries the function's name as
// an operand through to the fused instruction (there is no other operand
// slot to hang it on); "ldi N" loads the expected count into @0, and
// "assert @0 @1" compares it against the actual count the call convention
// already placed in @1.
func matchPVal(p []Line) (Line, int, bool) {
	if len(p) < 3 {
		return Line{}, 0, false
	}
	a, b, c := p[0], p[1], p[2]
	if mn(a) == "mload" && mn(b) == "ldi" && mn(c) == "assert" &&
		opnd(c, 0) == "@0" && opnd(c, 1) == "@1" {
		return Line{No: a.No, Mnemonic: "opt_pval", Operands: []string{opnd(b, 0), opnd(a, 0)}}, 3, true
	}
	return Line{}, 0, false
}
