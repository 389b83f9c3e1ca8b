// Package pvl parses Parameter Value Language labels as written by ISIS3.
//
// A label is a tree of objects and groups holding keyword = value statements.
// Statement order and repeated names are preserved, since ISIS labels carry
// several objects with the same name (one "Table" object per table).
package pvl

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrSyntax is matched by every parse failure
var ErrSyntax = errors.New("pvl: syntax error")

// SyntaxError reports where a label stopped making sense
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pvl: line %d: %s", e.Line, e.Msg)
}

// Is makes every SyntaxError match ErrSyntax
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// BlockKind distinguishes objects from groups
type BlockKind int

const (
	Root BlockKind = iota
	Object
	Group
)

func (k BlockKind) String() string {
	switch k {
	case Object:
		return "Object"
	case Group:
		return "Group"
	}
	return "Root"
}

// Item is one statement of a block: either a keyword or a nested block
type Item struct {
	Key   string
	Value Value
	Block *Block
}

// Block is an object, a group, or the label root
type Block struct {
	Kind  BlockKind
	Name  string
	Items []Item
}

// Get returns the value of the first keyword named key in this block (case-insensitive)
func (b *Block) Get(key string) (Value, bool) {
	for _, it := range b.Items {
		if it.Block == nil && strings.EqualFold(it.Key, key) {
			return it.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether this block holds a keyword named key
func (b *Block) Has(key string) bool {
	_, ok := b.Get(key)
	return ok
}

// Keywords returns the keyword statements of this block in label order
func (b *Block) Keywords() []Item {
	var out []Item
	for _, it := range b.Items {
		if it.Block == nil {
			out = append(out, it)
		}
	}
	return out
}

// Blocks returns the nested blocks of the given kind and name. An empty name matches all.
func (b *Block) Blocks(kind BlockKind, name string) []*Block {
	var out []*Block
	for _, it := range b.Items {
		if it.Block == nil || it.Block.Kind != kind {
			continue
		}
		if name == "" || strings.EqualFold(it.Block.Name, name) {
			out = append(out, it.Block)
		}
	}
	return out
}

// Object returns the first nested object named name
func (b *Block) Object(name string) (*Block, bool) {
	blocks := b.Blocks(Object, name)
	if len(blocks) == 0 {
		return nil, false
	}
	return blocks[0], true
}

// Group returns the first nested group named name
func (b *Block) Group(name string) (*Block, bool) {
	blocks := b.Blocks(Group, name)
	if len(blocks) == 0 {
		return nil, false
	}
	return blocks[0], true
}

// Path follows a chain of nested block names (objects or groups) from b
func (b *Block) Path(names ...string) (*Block, bool) {
	cur := b
	for _, name := range names {
		var next *Block
		for _, it := range cur.Items {
			if it.Block != nil && strings.EqualFold(it.Block.Name, name) {
				next = it.Block
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Parse reads a label from src. Parsing stops at the top-level End statement;
// bytes after it are never examined, so src may extend into binary data.
// It returns the root block and the number of bytes consumed.
func Parse(src []byte) (*Block, int, error) {
	p := &parser{lex: newLexer(src)}
	root, err := p.parse()
	if err != nil {
		return nil, 0, err
	}
	return root, p.lex.pos, nil
}

type parser struct {
	lex  *lexer
	peek *token
}

func (p *parser) next() (token, error) {
	if p.peek != nil {
		t := *p.peek
		p.peek = nil
		return t, nil
	}
	return p.lex.next()
}

func (p *parser) unread(t token) {
	p.peek = &t
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t, err := p.next()
	if err != nil {
		return t, err
	}
	if t.kind != kind {
		return t, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("expected %s, found %s %q", kind, t.kind, t.text)}
	}
	return t, nil
}

func isKeyword(t token, words ...string) bool {
	if t.kind != tokWord {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.text, w) {
			return true
		}
	}
	return false
}

func (p *parser) parse() (*Block, error) {
	root := &Block{Kind: Root}
	stack := []*Block{root}

	for {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		cur := stack[len(stack)-1]

		switch {
		case t.kind == tokEOF:
			return nil, &SyntaxError{Line: t.line, Msg: "label ends without End statement"}

		case isKeyword(t, "End"):
			if len(stack) > 1 {
				return nil, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("End inside %s %q", cur.Kind, cur.Name)}
			}
			return root, nil

		case isKeyword(t, "End_Object", "EndObject", "End_Group", "EndGroup"):
			want := Object
			if strings.Contains(strings.ToLower(t.text), "group") {
				want = Group
			}
			if cur.Kind != want {
				return nil, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("%s closes %s %q", t.text, cur.Kind, cur.Name)}
			}
			if err := p.skipOptionalName(); err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-1]

		case isKeyword(t, "Object", "Begin_Object", "BeginObject", "Group", "Begin_Group", "BeginGroup"):
			kind := Object
			if strings.Contains(strings.ToLower(t.text), "group") {
				kind = Group
			}
			if _, err := p.expect(tokEquals); err != nil {
				return nil, err
			}
			name, err := p.next()
			if err != nil {
				return nil, err
			}
			if name.kind != tokWord && name.kind != tokQuoted && name.kind != tokSymbol {
				return nil, &SyntaxError{Line: name.line, Msg: fmt.Sprintf("invalid %s name %q", kind, name.text)}
			}
			block := &Block{Kind: kind, Name: name.text}
			cur.Items = append(cur.Items, Item{Key: block.Name, Block: block})
			stack = append(stack, block)

		case t.kind == tokWord:
			if _, err := p.expect(tokEquals); err != nil {
				return nil, err
			}
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			cur.Items = append(cur.Items, Item{Key: t.text, Value: v})

		default:
			return nil, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("unexpected %s %q", t.kind, t.text)}
		}
	}
}

// skipOptionalName consumes the "= Name" some writers put after End_Object
func (p *parser) skipOptionalName() error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.kind != tokEquals {
		p.unread(t)
		return nil
	}
	_, err = p.next()
	return err
}

func (p *parser) value() (Value, error) {
	t, err := p.next()
	if err != nil {
		return Value{}, err
	}

	var v Value
	switch t.kind {
	case tokOpenParen:
		v, err = p.list(Sequence, tokCloseParen)
	case tokOpenBrace:
		v, err = p.list(Set, tokCloseBrace)
	case tokQuoted:
		v = NewString(t.text)
	case tokSymbol:
		v = NewSymbol(t.text)
	case tokWord:
		v = parseScalar(t.text)
	default:
		return Value{}, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("expected value, found %s %q", t.kind, t.text)}
	}
	if err != nil {
		return Value{}, err
	}

	// optional units
	u, err := p.next()
	if err != nil {
		return Value{}, err
	}
	if u.kind == tokUnit {
		v.Unit = u.text
	} else {
		p.unread(u)
	}
	return v, nil
}

func (p *parser) list(kind Kind, closing tokenKind) (Value, error) {
	v := Value{Kind: kind, Items: []Value{}}

	t, err := p.next()
	if err != nil {
		return Value{}, err
	}
	if t.kind == closing {
		return v, nil
	}
	p.unread(t)

	for {
		item, err := p.value()
		if err != nil {
			return Value{}, err
		}
		v.Items = append(v.Items, item)

		t, err := p.next()
		if err != nil {
			return Value{}, err
		}
		switch t.kind {
		case tokComma:
			continue
		case closing:
			return v, nil
		case tokEOF:
			return Value{}, &SyntaxError{Line: t.line, Msg: "unterminated list"}
		default:
			return Value{}, &SyntaxError{Line: t.line, Msg: fmt.Sprintf("expected ',' or %s in list, found %q", closing, t.text)}
		}
	}
}
