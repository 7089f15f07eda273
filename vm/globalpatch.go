package vm

import "schemevm/types"

// globalPatchTable is the process-wide resolved-reference table §4.1's
// "Global-reference patching" describes. Go gives no pointer to a map
// cell the way vm.c's checked_globals array holds a raw SCM*, so instead
// of caching a cell address this table caches the resolved Symbol: an
// UGLOBAL_REF still does one module lookup, but skips the original
// symbol decode out of the constant pool. That preserves the section's
// observable contract ("GLOBAL_REF and UGLOBAL_REF resolve to the same
// binding cell ... produce identical results") without requiring unsafe
// pointer arithmetic into a Go map.
type globalPatchTable struct {
	symbols []types.Symbol
}

func newGlobalPatchTable() *globalPatchTable {
	return &globalPatchTable{}
}

// intern records sym and returns its patch-table index, reusing an
// existing entry when the same cell was already patched elsewhere in
// the code stream (mirrors vm.c's add_global dedup scan).
func (t *globalPatchTable) intern(sym types.Symbol) int {
	for i, s := range t.symbols {
		if s == sym {
			return i
		}
	}
	t.symbols = append(t.symbols, sym)
	return len(t.symbols) - 1
}

func (t *globalPatchTable) symbolAt(idx int) types.Symbol {
	return t.symbols[idx]
}

// patchGlobalRef rewrites a GLOBAL_REF/GREF_INVOKE instruction in place
// to its unchecked counterpart, storing the patch-table index as the
// operand. Idempotent: re-running it on an already-patched instruction
// writes the same two words again. Each opcode case only patches
// GLOBAL_REF/GREF_INVOKE, never their U-forms.
func patchGlobalRef(prog *Program, pc int, newOp OpCode, idx int) {
	prog.Code[pc] = uint16(byte(newOp))
	prog.Code[pc+1] = uint16(idx)
}
