package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseIDL parses one IDL source file into its struct definitions. The
// grammar is small: an optional package declaration, then struct blocks
// containing const statements and field statements. filename only labels
// error messages.
func ParseIDL(filename string, src []byte) ([]StructDef, error) {
	p := &parser{name: filename}
	p.lex(string(src))
	return p.parseFile()
}

type token struct {
	text string
	line int
}

type parser struct {
	name string
	toks []token
	pos  int
}

// lex splits the source into identifier, number and punctuation tokens,
// dropping comments. Block comments keep their newlines so line numbers in
// errors stay honest.
func (p *parser) lex(src string) {
	for {
		if i := strings.Index(src, "/*"); i >= 0 {
			end := strings.Index(src[i:], "*/")
			if end < 0 {
				src = src[:i]
				break
			}
			body := src[i : i+end+2]
			src = src[:i] + strings.Repeat("\n", strings.Count(body, "\n")) + src[i+end+2:]
			continue
		}
		break
	}

	line := 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			p.toks = append(p.toks, token{src[i:j], line})
			i = j
		case c >= '0' && c <= '9' || c == '.' && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9':
			j := i
			for j < len(src) && (src[j] >= '0' && src[j] <= '9' || src[j] == '.' || src[j] == 'e' || src[j] == 'E' ||
				(src[j] == '-' || src[j] == '+') && j > i && (src[j-1] == 'e' || src[j-1] == 'E')) {
				j++
			}
			p.toks = append(p.toks, token{src[i:j], line})
			i = j
		default:
			p.toks = append(p.toks, token{string(c), line})
			i++
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) errf(line int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.name, line, fmt.Sprintf(format, args...))
}

func (p *parser) lastLine() int {
	if len(p.toks) == 0 {
		return 1
	}
	return p.toks[len(p.toks)-1].line
}

// expect consumes the next token and requires it to equal want.
func (p *parser) expect(want string) (token, error) {
	t, ok := p.next()
	if !ok {
		return token{}, p.errf(p.lastLine(), "expected %q but reached end of file", want)
	}
	if t.text != want {
		return token{}, p.errf(t.line, "expected %q but got %q", want, t.text)
	}
	return t, nil
}

func (p *parser) ident(what string) (token, error) {
	t, ok := p.next()
	if !ok {
		return token{}, p.errf(p.lastLine(), "expected %s but reached end of file", what)
	}
	if !isIdentStart(t.text[0]) {
		return token{}, p.errf(t.line, "expected %s but got %q", what, t.text)
	}
	return t, nil
}

func (p *parser) parseFile() ([]StructDef, error) {
	pkg := ""
	if t, ok := p.peek(); ok && t.text == "package" {
		p.pos++
		name, err := p.qualifiedIdent("package name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(";"); err != nil {
			return nil, err
		}
		pkg = name
	}

	var defs []StructDef
	for {
		t, ok := p.peek()
		if !ok {
			break
		}
		if t.text != "struct" {
			return nil, p.errf(t.line, "expected \"struct\" but got %q", t.text)
		}
		def, err := p.parseStruct(pkg)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if len(defs) == 0 {
		return nil, p.errf(p.lastLine(), "no struct definitions found")
	}
	return defs, nil
}

// qualifiedIdent reads ident(.ident)* and returns the dotted text.
func (p *parser) qualifiedIdent(what string) (string, error) {
	t, err := p.ident(what)
	if err != nil {
		return "", err
	}
	name := t.text
	for {
		nt, ok := p.peek()
		if !ok || nt.text != "." {
			return name, nil
		}
		p.pos++
		part, err := p.ident(what)
		if err != nil {
			return "", err
		}
		name += "." + part.text
	}
}

func (p *parser) parseStruct(pkg string) (StructDef, error) {
	var def StructDef
	def.Package = pkg
	if _, err := p.expect("struct"); err != nil {
		return def, err
	}
	name, err := p.ident("struct name")
	if err != nil {
		return def, err
	}
	def.Name = name.text
	if _, err := p.expect("{"); err != nil {
		return def, err
	}

	for {
		t, ok := p.peek()
		if !ok {
			return def, p.errf(p.lastLine(), "expected \"}\" but reached end of file")
		}
		if t.text == "}" {
			p.pos++
			return def, nil
		}
		if t.text == "const" {
			if err := p.parseConst(&def); err != nil {
				return def, err
			}
			continue
		}
		if err := p.parseField(&def); err != nil {
			return def, err
		}
	}
}

// parseConst handles `const <type> NAME = value[, NAME = value]* ;`.
func (p *parser) parseConst(def *StructDef) error {
	if _, err := p.expect("const"); err != nil {
		return err
	}
	kt, err := p.ident("constant type")
	if err != nil {
		return err
	}
	kind, ok := kindsByName[kt.text]
	if !ok || kind == KindString || kind == KindBoolean {
		return p.errf(kt.line, "invalid constant type %q", kt.text)
	}
	for {
		name, err := p.ident("constant name")
		if err != nil {
			return err
		}
		if _, err := p.expect("="); err != nil {
			return err
		}
		val, err := p.constValue(kind)
		if err != nil {
			return err
		}
		def.Constants = append(def.Constants, Constant{Name: name.text, Kind: kind, Value: val})

		t, ok := p.next()
		if !ok {
			return p.errf(p.lastLine(), "expected \";\" but reached end of file")
		}
		switch t.text {
		case ";":
			return nil
		case ",":
			continue
		default:
			return p.errf(t.line, "expected \",\" or \";\" but got %q", t.text)
		}
	}
}

// constValue reads an optionally signed numeric literal and checks it
// parses as the constant's kind.
func (p *parser) constValue(kind Kind) (string, error) {
	t, ok := p.next()
	if !ok {
		return "", p.errf(p.lastLine(), "expected constant value but reached end of file")
	}
	text := t.text
	if text == "-" || text == "+" {
		n, ok := p.next()
		if !ok {
			return "", p.errf(t.line, "expected number after %q", text)
		}
		text += n.text
	}
	if kind.integer() {
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			return "", p.errf(t.line, "invalid integer constant %q", text)
		}
	} else {
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return "", p.errf(t.line, "invalid numeric constant %q", text)
		}
	}
	return text, nil
}

// parseField handles `<type> name[dim]...[, name[dim]...]* ;` where dim is
// a literal size or an earlier field's name. Unqualified struct type names
// default to the enclosing package.
func (p *parser) parseField(def *StructDef) error {
	tt, err := p.qualifiedIdent("field type")
	if err != nil {
		return err
	}
	var ref TypeRef
	if kind, ok := kindsByName[tt]; ok {
		ref = Primitive(kind)
	} else if i := strings.LastIndex(tt, "."); i >= 0 {
		ref = StructRef(tt[:i], tt[i+1:])
	} else {
		ref = StructRef(def.Package, tt)
	}

	for {
		name, err := p.ident("field name")
		if err != nil {
			return err
		}
		f := Field{Name: name.text, Type: ref}
		for {
			t, ok := p.peek()
			if !ok || t.text != "[" {
				break
			}
			p.pos++
			dim, err := p.parseDim()
			if err != nil {
				return err
			}
			f.Dims = append(f.Dims, dim)
		}
		def.Fields = append(def.Fields, f)

		t, ok := p.next()
		if !ok {
			return p.errf(p.lastLine(), "expected \";\" but reached end of file")
		}
		switch t.text {
		case ";":
			return nil
		case ",":
			continue
		default:
			return p.errf(t.line, "expected \",\" or \";\" but got %q", t.text)
		}
	}
}

func (p *parser) parseDim() (Dim, error) {
	t, ok := p.next()
	if !ok {
		return Dim{}, p.errf(p.lastLine(), "expected array dimension but reached end of file")
	}
	var d Dim
	if n, err := strconv.Atoi(t.text); err == nil {
		d = FixedDim(n)
	} else if isIdentStart(t.text[0]) {
		d = VarDim(t.text)
	} else {
		return Dim{}, p.errf(t.line, "expected array dimension but got %q", t.text)
	}
	if _, err := p.expect("]"); err != nil {
		return Dim{}, err
	}
	return d, nil
}
