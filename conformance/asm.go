// asm.go hand-assembles the vm.Program bytecode the scenarios in
// runner.go execute. There is no Scheme-source-to-bytecode compiler in
// this repository (loader/reader.go only parses the bytecode
// container's constant-pool datum syntax, not executable source), so
// exercising real opcode sequences — tail calls, handlers,
// continuations — means building the Code/Constants arrays by hand, in
// the same shape a real compiler's code generator would emit. Grounded
// on vm/step.go's opcode semantics and the jump/patch idiom every
// assembler in the pack reaches for (two-pass: emit with placeholder
// offsets, patch once every label is known).
package conformance

import (
	"fmt"

	"schemevm/types"
	"schemevm/vm"
)

type fixup struct {
	pos   int // index of the operand word to patch
	label string
}

// asm accumulates one shared Code/Constants pair. Closures built from it
// (see runner.go) each get their own Entry offset into the same Code
// slice, exactly like CREATE_CLOSURE's Entry-sharing convention in
// vm/step.go.
type asm struct {
	code   []uint16
	consts []types.Value
	labels map[string]int
	fixups []fixup
}

func newAsm() *asm {
	return &asm{labels: map[string]int{}}
}

// constant interns v into the constant pool, returning its index.
func (a *asm) constant(v types.Value) int {
	a.consts = append(a.consts, v)
	return len(a.consts) - 1
}

// here returns the offset the next emitted word will occupy — the
// Entry a types.Closure should use if its body starts here.
func (a *asm) here() int { return len(a.code) }

func (a *asm) op(o vm.OpCode) { a.code = append(a.code, uint16(o)) }

func (a *asm) opOperand(o vm.OpCode, operand int) {
	a.op(o)
	a.code = append(a.code, uint16(operand))
}

// opConst emits op followed by a constant-pool index.
func (a *asm) opConst(o vm.OpCode, v types.Value) {
	a.opOperand(o, a.constant(v))
}

// opPacked emits op followed by a (hi, lo) packed word, DEEP_LOCAL_REF/
// SET's operand shape (vm/step.go's packedHiLo).
func (a *asm) opPacked(o vm.OpCode, hi, lo int) {
	a.op(o)
	a.code = append(a.code, uint16(hi<<8|lo))
}

// jump emits a GOTO-family opcode with a placeholder offset, resolved
// once label is defined via a.label. Matches GOTO's own convention
// (vm/step.go): target = (operand word's own offset) + off.
func (a *asm) jump(o vm.OpCode, label string) {
	a.op(o)
	pos := len(a.code)
	a.fixups = append(a.fixups, fixup{pos: pos, label: label})
	a.code = append(a.code, 0)
}

func (a *asm) label(name string) {
	if _, dup := a.labels[name]; dup {
		panic(fmt.Sprintf("duplicate label %q", name))
	}
	a.labels[name] = len(a.code)
}

// resolve patches every jump's placeholder offset now that all labels
// are known. Call once, after every instruction has been emitted.
func (a *asm) resolve() {
	for _, f := range a.fixups {
		target, ok := a.labels[f.label]
		if !ok {
			panic(fmt.Sprintf("undefined label %q", f.label))
		}
		a.code[f.pos] = uint16(target - f.pos)
	}
}

// beginClosure emits CREATE_CLOSURE with a placeholder skip-offset and
// the given arity (negative for variadic, per types.Closure.Arity's
// convention), returning the offset to patch once the body is known
// (endClosure) and the body's own start offset (a Closure's Entry).
// Grounded on vm/step.go's OP_CREATE_CLOSURE case: it reads off then
// arity, then sets Entry to the instruction right after both operands.
func (a *asm) beginClosure(arity int) (offPos, bodyStart int) {
	a.op(vm.OP_CREATE_CLOSURE)
	offPos = len(a.code)
	a.code = append(a.code, 0) // placeholder, patched by endClosure
	a.code = append(a.code, uint16(int16(arity)))
	bodyStart = len(a.code)
	return offPos, bodyStart
}

// endClosure patches the skip-offset beginClosure reserved now that the
// body's length is known. off = bodyLen + 1 matches OP_CREATE_CLOSURE's
// own arithmetic (vm.pc = bodyStart + off - 1 must land one word past
// the body's last instruction).
func (a *asm) endClosure(offPos, bodyStart int) {
	bodyLen := len(a.code) - bodyStart
	a.code[offPos] = uint16(bodyLen + 1)
}

// closureAt builds a *types.Closure whose Code/Constants are this
// asm's finished arrays and whose Entry is entry — call only after
// resolve(), once the backing slices are done growing.
func (a *asm) closureAt(entry, arity int, env *types.Frame) *types.Closure {
	return &types.Closure{
		Code:      a.code,
		Constants: a.consts,
		Entry:     entry,
		Arity:     arity,
		Env:       env,
	}
}
