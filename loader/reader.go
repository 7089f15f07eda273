// Package loader reads the bytecode container format §4.8 describes and
// drives phrases into a vm.VM. Grounded on kristofer-smog's
// pkg/bytecode/format.go for the container-reading shape (header, then
// repeated sections until EOF) and on the teacher's own textual-protocol
// parsers for the rune-at-a-time reader idiom; the container's constant
// pool is S-expression text, not smog's fixed binary tags, so Reader
// below is a small Lisp reader rather than a tagged binary decoder.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"schemevm/types"
)

// Reader parses the textual datum syntax the bytecode container's
// constant pools use: booleans, small integers, characters, strings,
// symbols, quoted data, dotted and proper lists, and vectors — the
// subset of Scheme literal syntax a compiler ever emits into a constant
// pool.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadDatum reads one value. Returns io.EOF (unwrapped) when the stream
// is exhausted at a datum boundary, the signal §4.8 uses to terminate
// loading.
func (rd *Reader) ReadDatum() (types.Value, error) {
	rd.skipSpace()
	b, err := rd.r.Peek(1)
	if err != nil {
		return nil, err
	}
	switch b[0] {
	case '(':
		rd.r.ReadByte()
		return rd.readList(')')
	case '#':
		rd.r.ReadByte()
		return rd.readHash()
	case '"':
		rd.r.ReadByte()
		return rd.readString()
	case '\'':
		rd.r.ReadByte()
		d, err := rd.ReadDatum()
		if err != nil {
			return nil, err
		}
		return types.NewPair(types.Intern("quote"), types.NewPair(d, types.TheNil)), nil
	default:
		return rd.readAtom()
	}
}

func (rd *Reader) skipSpace() {
	for {
		ch, _, err := rd.r.ReadRune()
		if err != nil {
			return
		}
		if ch == ';' {
			for {
				c, _, err := rd.r.ReadRune()
				if err != nil || c == '\n' {
					break
				}
			}
			continue
		}
		if !isSpace(ch) {
			rd.r.UnreadRune()
			return
		}
	}
}

func isSpace(ch rune) bool { return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' }
func isDelim(ch rune) bool { return isSpace(ch) || ch == '(' || ch == ')' || ch == '"' || ch == ';' }

func (rd *Reader) readList(closing byte) (types.Value, error) {
	var items []types.Value
	for {
		rd.skipSpace()
		b, err := rd.r.Peek(1)
		if err != nil {
			return nil, fmt.Errorf("unterminated list")
		}
		if b[0] == closing {
			rd.r.ReadByte()
			return types.SliceToList(items), nil
		}
		if b[0] == '.' {
			if peek2, err := rd.r.Peek(2); err == nil && len(peek2) == 2 && isSpace(rune(peek2[1])) {
				rd.r.ReadByte() // consume '.'
				tail, err := rd.ReadDatum()
				if err != nil {
					return nil, err
				}
				rd.skipSpace()
				end, err := rd.r.ReadByte()
				if err != nil || end != closing {
					return nil, fmt.Errorf("malformed dotted list")
				}
				return buildDotted(items, tail), nil
			}
		}
		d, err := rd.ReadDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
}

func buildDotted(items []types.Value, tail types.Value) types.Value {
	result := tail
	for i := len(items) - 1; i >= 0; i-- {
		result = types.NewPair(items[i], result)
	}
	return result
}

func (rd *Reader) readHash() (types.Value, error) {
	ch, _, err := rd.r.ReadRune()
	if err != nil {
		return nil, fmt.Errorf("truncated # syntax")
	}
	switch ch {
	case 't':
		rd.consumeRest("rue")
		return types.True, nil
	case 'f':
		rd.consumeRest("alse")
		return types.False, nil
	case '\\':
		return rd.readChar()
	case '(':
		items, err := rd.readVectorItems()
		if err != nil {
			return nil, err
		}
		return types.NewVector(items), nil
	default:
		return nil, fmt.Errorf("unsupported # syntax: #%c", ch)
	}
}

// consumeRest swallows the remainder of #true/#false when a full word
// form was used rather than the bare #t/#f.
func (rd *Reader) consumeRest(rest string) {
	for _, want := range rest {
		b, err := rd.r.Peek(1)
		if err != nil || rune(b[0]) != want {
			return
		}
		rd.r.ReadByte()
	}
}

func (rd *Reader) readVectorItems() ([]types.Value, error) {
	var items []types.Value
	for {
		rd.skipSpace()
		b, err := rd.r.Peek(1)
		if err != nil {
			return nil, fmt.Errorf("unterminated vector")
		}
		if b[0] == ')' {
			rd.r.ReadByte()
			return items, nil
		}
		d, err := rd.ReadDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
}

func (rd *Reader) readChar() (types.Value, error) {
	ch, _, err := rd.r.ReadRune()
	if err != nil {
		return nil, fmt.Errorf("truncated character literal")
	}
	if !isAlnum(ch) {
		return types.Char(ch), nil
	}
	var sb strings.Builder
	sb.WriteRune(ch)
	for {
		b, err := rd.r.Peek(1)
		if err != nil || isDelim(rune(b[0])) {
			break
		}
		c, _, _ := rd.r.ReadRune()
		sb.WriteRune(c)
	}
	name := sb.String()
	if runes := []rune(name); len(runes) == 1 {
		return types.Char(runes[0]), nil
	}
	switch strings.ToLower(name) {
	case "space":
		return types.Char(' '), nil
	case "newline", "linefeed":
		return types.Char('\n'), nil
	case "tab":
		return types.Char('\t'), nil
	case "nul", "null":
		return types.Char(0), nil
	}
	return nil, fmt.Errorf("unknown character name: %s", name)
}

func isAlnum(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func (rd *Reader) readString() (types.Value, error) {
	var sb strings.Builder
	for {
		ch, _, err := rd.r.ReadRune()
		if err != nil {
			return nil, fmt.Errorf("unterminated string")
		}
		if ch == '"' {
			break
		}
		if ch == '\\' {
			esc, _, err := rd.r.ReadRune()
			if err != nil {
				return nil, fmt.Errorf("unterminated string escape")
			}
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(ch)
	}
	return types.NewString(sb.String()), nil
}

func (rd *Reader) readAtom() (types.Value, error) {
	var sb strings.Builder
	for {
		b, err := rd.r.Peek(1)
		if err != nil || isDelim(rune(b[0])) {
			break
		}
		ch, _, _ := rd.r.ReadRune()
		sb.WriteRune(ch)
	}
	tok := sb.String()
	if tok == "" {
		return nil, fmt.Errorf("empty token")
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return types.SmallInt(n), nil
	}
	return types.Intern(tok), nil
}

// readDigits reads a bare (optionally '-'-prefixed) decimal integer
// token, used for the phrase code-size field (§4.8 item 3), which is
// not delimited the same way a datum is.
func (rd *Reader) readDigits() (string, error) {
	var sb strings.Builder
	for {
		b, err := rd.r.Peek(1)
		if err != nil {
			break
		}
		c := b[0]
		if c != '-' && (c < '0' || c > '9') {
			break
		}
		rd.r.ReadByte()
		sb.WriteByte(c)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("expected a decimal integer")
	}
	return sb.String(), nil
}
