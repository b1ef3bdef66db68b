package tree

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zenobiuszeto/json-io/internal/intern"
)

// ErrParse is wrapped by every lexical or structural failure. Position
// tracking and the container stack recognize the wire's meta-keys as they
// are parsed and never recurse through the host call stack, so a document
// nesting arrays or objects arbitrarily deep parses in bounded stack
// space.
var ErrParse = errors.New("tree: parse error")

// numberBufferSize bounds a single numeric literal's length.
const numberBufferSize = 256

// maxContainerDepth is a sanity ceiling, not a design constraint: it exists
// to turn a pathological, effectively-unbounded input into a bounded error
// rather than unbounded memory growth. It is far above any realistic or
// intentionally deep document.
const maxContainerDepth = 1 << 20

type lexer struct {
	data []byte
	pos  int // next unread byte
}

func (l *lexer) peek() (byte, bool) {
	if l.pos >= len(l.data) {
		return 0, false
	}
	return l.data[l.pos], true
}

func (l *lexer) next() (byte, bool) {
	b, ok := l.peek()
	if ok {
		l.pos++
	}
	return b, ok
}

// pushback rewinds one byte of input.
func (l *lexer) pushback() {
	if l.pos > 0 {
		l.pos--
	}
}

func (l *lexer) skipWhitespace() {
	for {
		b, ok := l.peek()
		if !ok {
			return
		}
		switch b {
		case ' ', '\t', '\n', '\r', '\f', '\b':
			l.pos++
		default:
			return
		}
	}
}

func lexErr(pos int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s at byte %d", ErrParse, msg, pos)
}

// objState and arrState track, per open container, exactly what token is
// expected next: a state per stack frame drives a pushdown automaton, not
// host recursion, through container nesting.
type objState int

const (
	objWantKeyOrClose objState = iota // just opened: '}' or a key string
	objWantKey                        // after a comma: a key string only
	objWantColon                      // after a key: ':'
	objWantValue                      // after ':': a value
	objWantCommaOrClose               // after a value: ',' or '}'
)

type arrState int

const (
	arrWantValueOrClose arrState = iota // just opened: ']' or a value
	arrWantValue                        // after a comma: a value only
	arrWantCommaOrClose                 // after a value: ',' or ']'
)

type frame struct {
	node       *Node
	isObject   bool
	objState   objState
	arrState   arrState
	pendingKey string
}

// Parse reads one JSON document from data and returns its intermediate
// tree plus the id -> Node reference table assembled while parsing: every
// Object node whose "@id" field was populated is recorded there, ready
// for the reader's build pass to resolve any "@ref" against.
func Parse(data []byte) (*Node, map[int64]*Node, error) {
	l := &lexer{data: data}
	refs := make(map[int64]*Node)

	root, err := parseDocument(l, refs)
	if err != nil {
		return nil, nil, err
	}

	l.skipWhitespace()
	if _, ok := l.peek(); ok {
		return nil, nil, lexErr(l.pos+1, "trailing data after top-level value")
	}

	return root, refs, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Node, map[int64]*Node, error) {
	return Parse([]byte(s))
}

// ParseReader drains r and parses it; the reader materializes the full
// byte sequence before scanning rather than parsing incrementally off a
// stream.
func ParseReader(r io.Reader) (*Node, map[int64]*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	return Parse(data)
}

func parseDocument(l *lexer, refs map[int64]*Node) (*Node, error) {
	var stack []*frame
	var result *Node
	done := false

	attach := func(v *Node) error {
		if len(stack) == 0 {
			result = v
			done = true
			return nil
		}
		top := stack[len(stack)-1]
		if top.isObject {
			switch top.objState {
			case objWantKeyOrClose, objWantKey:
				if v.kind != String {
					return lexErr(l.pos, "object key must be a string")
				}
				top.pendingKey = v.s
				top.objState = objWantColon
			case objWantValue:
				switch top.pendingKey {
				case "@type":
					if s, err := v.AsString(); err == nil {
						top.node.SetType(s)
					}
				case "@id":
					if id, err := v.AsInt64(); err == nil {
						top.node.SetID(id)
						refs[id] = top.node
					}
				case "@ref":
					if id, err := v.AsInt64(); err == nil {
						top.node.SetRef(id)
					}
				case "@items":
					if arr, err := v.AsArray(); err == nil {
						top.node.SetItems(arr)
					}
				case "@keys":
					if arr, err := v.AsArray(); err == nil {
						top.node.SetKeys(arr)
					}
				case "value":
					top.node.SetValue(v)
				default:
					top.node.obj = append(top.node.obj, Field{Key: top.pendingKey, Val: v})
				}
				top.objState = objWantCommaOrClose
			default:
				return lexErr(l.pos, "unexpected value in object")
			}
			return nil
		}
		top.node.arr = append(top.node.arr, v)
		top.arrState = arrWantCommaOrClose
		return nil
	}

	for !done {
		l.skipWhitespace()
		b, ok := l.peek()

		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.isObject {
				switch top.objState {
				case objWantKeyOrClose:
					if !ok {
						return nil, lexErr(l.pos+1, "unexpected end of input in object")
					}
					if b == '}' {
						l.next()
						stack = stack[:len(stack)-1]
						if err := attach(top.node); err != nil {
							return nil, err
						}
						continue
					}
				case objWantKey:
					if !ok {
						return nil, lexErr(l.pos+1, "unexpected end of input in object")
					}
				case objWantColon:
					if !ok || b != ':' {
						return nil, lexErr(l.pos+1, "expected ':'")
					}
					l.next()
					top.objState = objWantValue
					continue
				case objWantCommaOrClose:
					if !ok {
						return nil, lexErr(l.pos+1, "unexpected end of input in object")
					}
					if b == '}' {
						l.next()
						stack = stack[:len(stack)-1]
						if err := attach(top.node); err != nil {
							return nil, err
						}
						continue
					}
					if b != ',' {
						return nil, lexErr(l.pos+1, "expected ',' or '}'")
					}
					l.next()
					top.objState = objWantKey
					continue
				}
			} else {
				switch top.arrState {
				case arrWantValueOrClose:
					if !ok {
						return nil, lexErr(l.pos+1, "unexpected end of input in array")
					}
					if b == ']' {
						l.next()
						stack = stack[:len(stack)-1]
						if err := attach(top.node); err != nil {
							return nil, err
						}
						continue
					}
				case arrWantValue:
					if !ok {
						return nil, lexErr(l.pos+1, "unexpected end of input in array")
					}
				case arrWantCommaOrClose:
					if !ok {
						return nil, lexErr(l.pos+1, "unexpected end of input in array")
					}
					if b == ']' {
						l.next()
						stack = stack[:len(stack)-1]
						if err := attach(top.node); err != nil {
							return nil, err
						}
						continue
					}
					if b != ',' {
						return nil, lexErr(l.pos+1, "expected ',' or ']'")
					}
					l.next()
					top.arrState = arrWantValue
					continue
				}
			}
		}

		if !ok {
			return nil, lexErr(l.pos+1, "unexpected end of input")
		}

		switch {
		case b == '{':
			l.next()
			if len(stack) >= maxContainerDepth {
				return nil, lexErr(l.pos, "maximum nesting depth exceeded")
			}
			stack = append(stack, &frame{node: &Node{kind: Object}, isObject: true})
		case b == '[':
			l.next()
			if len(stack) >= maxContainerDepth {
				return nil, lexErr(l.pos, "maximum nesting depth exceeded")
			}
			stack = append(stack, &frame{node: &Node{kind: Array}, isObject: false})
		case b == '"':
			l.next()
			s, err := parseStringBody(l)
			if err != nil {
				return nil, err
			}
			if err := attach(NewString(intern.String(s))); err != nil {
				return nil, err
			}
		case b == 't' || b == 'f':
			v, err := parseBool(l)
			if err != nil {
				return nil, err
			}
			if err := attach(v); err != nil {
				return nil, err
			}
		case b == 'n':
			v, err := parseNull(l)
			if err != nil {
				return nil, err
			}
			if err := attach(v); err != nil {
				return nil, err
			}
		case b == '-' || (b >= '0' && b <= '9'):
			v, err := parseNumber(l)
			if err != nil {
				return nil, err
			}
			if err := attach(v); err != nil {
				return nil, err
			}
		default:
			return nil, lexErr(l.pos+1, "unexpected character %q", b)
		}
	}

	if result == nil {
		return nil, lexErr(1, "empty input")
	}
	return result, nil
}

func expectLiteral(l *lexer, lit string) error {
	start := l.pos
	for i := 0; i < len(lit); i++ {
		b, ok := l.next()
		if !ok || b != lit[i] {
			return lexErr(start+1, "invalid literal, expected %q", lit)
		}
	}
	return nil
}

func parseBool(l *lexer) (*Node, error) {
	b, _ := l.peek()
	if b == 't' {
		if err := expectLiteral(l, "true"); err != nil {
			return nil, err
		}
		return NewBool(true), nil
	}
	if err := expectLiteral(l, "false"); err != nil {
		return nil, err
	}
	return NewBool(false), nil
}

func parseNull(l *lexer) (*Node, error) {
	if err := expectLiteral(l, "null"); err != nil {
		return nil, err
	}
	return NewNull(), nil
}

// parseNumber scans into a fixed buffer and classifies the literal as
// integer or floating point based on whether '.', 'e' or 'E' was seen.
func parseNumber(l *lexer) (*Node, error) {
	var buf [numberBufferSize]byte
	n := 0
	start := l.pos
	isFloat := false

	push := func(b byte) error {
		if n >= numberBufferSize {
			return lexErr(start+1, "number literal too long")
		}
		buf[n] = b
		n++
		return nil
	}

	if b, ok := l.peek(); ok && b == '-' {
		l.next()
		if err := push(b); err != nil {
			return nil, err
		}
	}
	for {
		b, ok := l.peek()
		if !ok {
			break
		}
		switch {
		case b >= '0' && b <= '9':
			l.next()
			if err := push(b); err != nil {
				return nil, err
			}
		case b == '.':
			isFloat = true
			l.next()
			if err := push(b); err != nil {
				return nil, err
			}
		case b == 'e' || b == 'E':
			isFloat = true
			l.next()
			if err := push(b); err != nil {
				return nil, err
			}
			if nb, ok := l.peek(); ok && (nb == '+' || nb == '-') {
				l.next()
				if err := push(nb); err != nil {
					return nil, err
				}
			}
		default:
			// Not part of the number; leave it for the caller (it was only
			// peeked, never consumed).
			goto scanned
		}
	}
scanned:
	lit := string(buf[:n])
	if isFloat {
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, lexErr(start+1, "invalid number literal %q", lit)
		}
		return NewFloat(v), nil
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, lexErr(start+1, "invalid integer literal %q", lit)
	}
	return NewInt(v), nil
}

// parseStringBody assumes the opening quote has already been consumed.
func parseStringBody(l *lexer) (string, error) {
	var sb strings.Builder
	start := l.pos
	for {
		b, ok := l.next()
		if !ok {
			return "", lexErr(start, "unexpected end of input in string")
		}
		switch b {
		case '"':
			return sb.String(), nil
		case '\\':
			eb, ok := l.next()
			if !ok {
				return "", lexErr(start, "unexpected end of input in string escape")
			}
			switch eb {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'f':
				sb.WriteByte('\f')
			case 'b':
				sb.WriteByte('\b')
			case '\\':
				sb.WriteByte('\\')
			case '/':
				sb.WriteByte('/')
			case '"':
				sb.WriteByte('"')
			case 'u':
				r, err := readHex4(l)
				if err != nil {
					return "", err
				}
				if r >= 0xD800 && r <= 0xDBFF {
					// High surrogate: a low surrogate must follow.
					b1, ok1 := l.next()
					b2, ok2 := l.next()
					if !ok1 || !ok2 || b1 != '\\' || b2 != 'u' {
						return "", lexErr(l.pos, "unpaired surrogate escape")
					}
					low, err := readHex4(l)
					if err != nil {
						return "", err
					}
					if low < 0xDC00 || low > 0xDFFF {
						return "", lexErr(l.pos, "invalid low surrogate")
					}
					combined := 0x10000 + (r-0xD800)*0x400 + (low - 0xDC00)
					sb.WriteRune(rune(combined))
				} else {
					sb.WriteRune(rune(r))
				}
			default:
				return "", lexErr(l.pos, "invalid escape character %q", eb)
			}
		default:
			sb.WriteByte(b)
		}
	}
}

func readHex4(l *lexer) (int32, error) {
	var v int32
	for i := 0; i < 4; i++ {
		b, ok := l.next()
		if !ok {
			return 0, lexErr(l.pos, "unexpected end of input in unicode escape")
		}
		var d int32
		switch {
		case b >= '0' && b <= '9':
			d = int32(b - '0')
		case b >= 'a' && b <= 'f':
			d = int32(b-'a') + 10
		case b >= 'A' && b <= 'F':
			d = int32(b-'A') + 10
		default:
			return 0, lexErr(l.pos, "invalid hex digit %q in unicode escape", b)
		}
		v = v*16 + d
	}
	return v, nil
}
