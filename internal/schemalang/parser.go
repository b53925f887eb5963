package schemalang

import (
	"fmt"

	"github.com/curious-machines/typed-tables/internal/registry"
	"github.com/curious-machines/typed-tables/internal/ttcore"
	"github.com/curious-machines/typed-tables/internal/types"
)

// Parser consumes tokens from a Lexer and registers type definitions
// directly into a registry.Registry as it goes — there is no separate AST
// stage, since every statement in this grammar maps directly onto registry
// operations (spec.md §4.6): its own definition, plus any array or enum
// payload types it introduces along the way.
type Parser struct {
	lexer *Lexer
	tok   Token
	reg   *registry.Registry
}

// NewParser constructs a parser over source that will register types into
// reg. reg should already have RegisterBuiltins applied.
func NewParser(source string, reg *registry.Registry) (*Parser, error) {
	p := &Parser{lexer: NewLexer(source), reg: reg}
	if err := p.advance(); err != nil {
		return nil, err
	}

	return p, nil
}

// ParseWithBuiltins is the common-case entry point: builds a fresh
// registry, registers the primitive/string builtins, parses source into
// it, resolves forward declarations, and returns the finished registry.
func ParseWithBuiltins(source string) (*registry.Registry, error) {
	reg := registry.New()
	if err := RegisterBuiltins(reg); err != nil {
		return nil, err
	}

	if err := Parse(source, reg); err != nil {
		return nil, err
	}

	return reg, nil
}

// Parse parses source as a sequence of schema-DSL statements, registering
// each into reg, then finalises reg (spec.md §4.5: unresolved forwards at
// end-of-parse are an error).
func Parse(source string, reg *registry.Registry) error {
	p, err := NewParser(source, reg)
	if err != nil {
		return err
	}

	if err := p.parseProgram(); err != nil {
		return err
	}

	return reg.Finalize()
}

func (p *Parser) advance() error {
	tok, err := p.lexer.Next()
	if err != nil {
		return err
	}

	p.tok = tok

	return nil
}

func (p *Parser) at(kind TokenKind) bool { return p.tok.Kind == kind }

func (p *Parser) atKeyword(word string) bool {
	return p.tok.Kind == KindIdent && p.tok.Text == word
}

func (p *Parser) expect(kind TokenKind, what string) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, ttcore.NewSyntaxError(p.tok.Span, "expected %s, got %q", what, p.tok.Text)
	}

	tok := p.tok
	if err := p.advance(); err != nil {
		return Token{}, err
	}

	return tok, nil
}

func (p *Parser) expectIdent() (string, error) {
	tok, err := p.expect(KindIdent, "identifier")
	if err != nil {
		return "", err
	}

	return tok.Text, nil
}

func (p *Parser) parseProgram() error {
	for !p.at(KindEOF) {
		if err := p.parseStatement(); err != nil {
			return err
		}
	}

	return nil
}

func (p *Parser) parseStatement() error {
	switch {
	case p.atKeyword("define") || p.atKeyword("alias"):
		return p.parseAlias()
	case p.atKeyword("forward"):
		return p.parseForward()
	case p.atKeyword("type"):
		return p.parseComposite()
	case p.atKeyword("enum"):
		return p.parseEnum()
	case p.atKeyword("interface"):
		return p.parseInterface()
	default:
		return ttcore.NewSyntaxError(p.tok.Span, "expected a statement, got %q", p.tok.Text)
	}
}

// parseAlias implements: ("define"|"alias") IDENT "as" type_ref
func (p *Parser) parseAlias() error {
	if err := p.advance(); err != nil { // consume "define"/"alias"
		return err
	}

	name, err := p.expectIdent()
	if err != nil {
		return err
	}

	if !p.atKeyword("as") {
		return ttcore.NewSyntaxError(p.tok.Span, "expected 'as', got %q", p.tok.Text)
	}

	if err := p.advance(); err != nil {
		return err
	}

	base, err := p.parseTypeRef()
	if err != nil {
		return err
	}

	return p.reg.Define(types.NewAlias(name, base))
}

// parseForward implements: "forward" IDENT
func (p *Parser) parseForward() error {
	if err := p.advance(); err != nil {
		return err
	}

	name, err := p.expectIdent()
	if err != nil {
		return err
	}

	return p.reg.Forward(name)
}

// parseComposite implements: "type" IDENT "{" [ field { "," field } ] "}"
func (p *Parser) parseComposite() error {
	if err := p.advance(); err != nil {
		return err
	}

	name, err := p.expectIdent()
	if err != nil {
		return err
	}

	fields, err := p.parseFieldList()
	if err != nil {
		return err
	}

	return p.reg.Define(types.NewComposite(name, fields))
}

// parseInterface implements: "interface" IDENT "{" field { "," field } "}"
func (p *Parser) parseInterface() error {
	if err := p.advance(); err != nil {
		return err
	}

	name, err := p.expectIdent()
	if err != nil {
		return err
	}

	fields, err := p.parseFieldList()
	if err != nil {
		return err
	}

	return p.reg.Define(types.NewInterface(name, fields))
}

// parseFieldList implements: "{" [ field { "," field } ] "}", also
// tolerating newline-separated fields with no commas (the schema DSL's
// two accepted field-separator flavours per spec.md §9's open question;
// either is accepted on read, and nothing in this package emits schema
// text).
func (p *Parser) parseFieldList() ([]types.Field, error) {
	if _, err := p.expect(KindLBrace, "'{'"); err != nil {
		return nil, err
	}

	var fields []types.Field

	for !p.at(KindRBrace) {
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}

		fields = append(fields, field)

		if p.at(KindComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}

	if _, err := p.expect(KindRBrace, "'}'"); err != nil {
		return nil, err
	}

	return fields, nil
}

// parseField implements: IDENT [":" type_ref]
func (p *Parser) parseField() (types.Field, error) {
	name, err := p.expectIdent()
	if err != nil {
		return types.Field{}, err
	}

	if p.at(KindColon) {
		if err := p.advance(); err != nil {
			return types.Field{}, err
		}

		typeRef, err := p.parseTypeRef()
		if err != nil {
			return types.Field{}, err
		}

		return types.Field{Name: name, Type: typeRef}, nil
	}

	// ":" omitted: field type is the type of the same name as the field.
	return types.Field{Name: name, Type: p.reg.Ref(name)}, nil
}

// parseTypeRef implements: IDENT [ "[" "]" ]
func (p *Parser) parseTypeRef() (*types.TypeRef, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	elementRef := p.reg.Ref(name)

	if !p.at(KindLBracket) {
		return elementRef, nil
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	if _, err := p.expect(KindRBracket, "']'"); err != nil {
		return nil, err
	}

	arrName := fmt.Sprintf("%s[]", name)

	// Reuse an already-registered anonymous array literal of this element
	// type rather than redefining it (two fields can both write "Node[]").
	if existing, ok := p.reg.Get(arrName); ok {
		return types.NewResolvedTypeRef(existing), nil
	}

	// "character[]" is the string type spelled out explicitly (spec.md
	// §3.1: "String. Equivalent to character[]"), so it gets the same
	// IsString treatment as the builtin "string" alias.
	var arr *types.Array
	if name == "character" {
		arr = types.NewString(arrName, elementRef)
	} else {
		arr = types.NewArray(arrName, elementRef)
	}

	if err := p.reg.Define(arr); err != nil {
		return nil, err
	}

	return p.reg.Ref(arrName), nil
}

// parseEnum implements: "enum" IDENT "{" variant { "," variant } "}"
func (p *Parser) parseEnum() error {
	if err := p.advance(); err != nil {
		return err
	}

	name, err := p.expectIdent()
	if err != nil {
		return err
	}

	if _, err := p.expect(KindLBrace, "'{'"); err != nil {
		return err
	}

	var variants []types.Variant

	for !p.at(KindRBrace) {
		variant, err := p.parseVariant(name)
		if err != nil {
			return err
		}

		variants = append(variants, variant)

		if p.at(KindComma) {
			if err := p.advance(); err != nil {
				return err
			}
		}
	}

	if _, err := p.expect(KindRBrace, "'}'"); err != nil {
		return err
	}

	return p.reg.Define(types.NewEnum(name, variants))
}

// parseVariant implements: IDENT [ "(" field { "," field } ")" ]. enumName
// scopes the variant's payload composite name so that two enums sharing a
// variant name (e.g. both declaring "Ok"/"Err") don't collide in the
// registry.
func (p *Parser) parseVariant(enumName string) (types.Variant, error) {
	name, err := p.expectIdent()
	if err != nil {
		return types.Variant{}, err
	}

	if !p.at(KindLParen) {
		return types.Variant{Name: name}, nil
	}

	if err := p.advance(); err != nil {
		return types.Variant{}, err
	}

	var fields []types.Field

	for !p.at(KindRParen) {
		field, err := p.parseField()
		if err != nil {
			return types.Variant{}, err
		}

		fields = append(fields, field)

		if p.at(KindComma) {
			if err := p.advance(); err != nil {
				return types.Variant{}, err
			}
		}
	}

	if _, err := p.expect(KindRParen, "')'"); err != nil {
		return types.Variant{}, err
	}

	payloadName := enumName + "_" + name + "Payload"
	payload := types.NewComposite(payloadName, fields)

	if err := p.reg.Define(payload); err != nil {
		return types.Variant{}, err
	}

	return types.Variant{Name: name, Payload: p.reg.Ref(payloadName)}, nil
}
