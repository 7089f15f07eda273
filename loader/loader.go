package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"schemevm/types"
	"schemevm/vm"
)

// runtimeMarker is the literal symbol every bytecode file must open
// with (§4.8's "fixed marker symbol identifying the runtime").
const runtimeMarker = "schemevm"

// Load reads a signed bytecode container from r and executes each
// phrase against engine's current module as it is decoded (§4.8:
// "Each phrase is executed with current_module as its lexical
// environment before reading the next"). booted selects how a negative
// phrase size is treated: fatal once the VM has already booted a
// phrase, a quiet failure before that (the loader doubles as a probe
// for "is this file valid bytecode at all").
func Load(r io.Reader, engine *vm.VM, booted bool) error {
	br := bufio.NewReader(r)
	rd := &Reader{r: br}

	marker, err := rd.ReadDatum()
	if err != nil {
		return fmt.Errorf("bytecode header: %w", err)
	}
	sym, ok := marker.(types.Symbol)
	if !ok || sym.Name() != runtimeMarker {
		return fmt.Errorf("not a %s bytecode file", runtimeMarker)
	}
	if _, err := rd.ReadDatum(); err != nil { // version cell: read, not interpreted
		return fmt.Errorf("bytecode version: %w", err)
	}

	for {
		constants, err := rd.ReadDatum()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("phrase constants: %w", err)
		}
		vec, ok := constants.(*types.Vector)
		if !ok {
			return fmt.Errorf("phrase constants: expected a vector")
		}

		rd.skipSpace() // the separator character between constants and size
		sizeTok, err := rd.readDigits()
		if err != nil {
			return fmt.Errorf("phrase size: %w", err)
		}
		size, err := strconv.Atoi(sizeTok)
		if err != nil {
			return fmt.Errorf("phrase size: %w", err)
		}
		if size < 0 {
			if booted {
				return fmt.Errorf("negative code size on an already-booted VM")
			}
			return nil
		}
		if nl, err := br.ReadByte(); err != nil || nl != '\n' {
			return fmt.Errorf("phrase size: expected a newline separator")
		}

		buf := make([]byte, 2*size)
		if _, err := io.ReadFull(br, buf); err != nil {
			return fmt.Errorf("phrase code: %w", err)
		}
		code := make([]uint16, size)
		for i := range code {
			code[i] = binary.BigEndian.Uint16(buf[2*i:])
		}

		if err := engine.Boot(&vm.Program{Code: code, Constants: vec.Slots}); err != nil {
			return err
		}
		booted = true
	}
}

// LoadEmbedded implements §4.8's second entry point: a statically
// compiled-in boot image whose constants are source text (parsed once)
// and whose code is already an in-memory instruction array, used for
// images baked into the binary rather than read from a file.
func LoadEmbedded(constantsSrc string, code []uint16, engine *vm.VM) error {
	rd := &Reader{r: bufio.NewReader(strings.NewReader(constantsSrc))}
	datum, err := rd.ReadDatum()
	if err != nil {
		return fmt.Errorf("embedded constants: %w", err)
	}
	vec, ok := datum.(*types.Vector)
	if !ok {
		return fmt.Errorf("embedded constants: expected a vector")
	}
	return engine.Boot(&vm.Program{Code: code, Constants: vec.Slots})
}
