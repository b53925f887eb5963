package querylang

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/curious-machines/typed-tables/internal/ttcore"
)

// Parser consumes tokens from a Lexer and builds a Stmt AST, one
// statement at a time. Unlike schemalang's parser it does not touch a
// registry directly — TTQ statements are executed by the query package
// against whatever Schema a "use" statement bound.
type Parser struct {
	lexer *Lexer
	tok   Token
}

// NewParser constructs a parser over source.
func NewParser(source string) (*Parser, error) {
	p := &Parser{lexer: NewLexer(source)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	return p, nil
}

// ParseProgram parses source as a sequence of ';'/newline-separated TTQ
// statements (spec.md §4.9).
func ParseProgram(source string) ([]Stmt, error) {
	p, err := NewParser(source)
	if err != nil {
		return nil, err
	}

	var stmts []Stmt

	if err := p.skipSeparators(); err != nil {
		return nil, err
	}

	for !p.at(TokEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, stmt)

		if !p.at(TokEOF) {
			if err := p.expectSeparator(); err != nil {
				return nil, err
			}
		}

		if err := p.skipSeparators(); err != nil {
			return nil, err
		}
	}

	return stmts, nil
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
	return p.tok.Kind == TokIdent && strings.EqualFold(p.tok.Text, word)
}

func (p *Parser) skipSeparators() error {
	for p.at(TokSemicolon) {
		if err := p.advance(); err != nil {
			return err
		}
	}

	return nil
}

func (p *Parser) expectSeparator() error {
	if !p.at(TokSemicolon) && !p.at(TokEOF) {
		return ttcore.NewSyntaxError(p.tok.Span, "expected ';' or newline, got %q", p.tok.Text)
	}

	return p.advance()
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

func (p *Parser) expectKeyword(word string) error {
	if !p.atKeyword(word) {
		return ttcore.NewSyntaxError(p.tok.Span, "expected %q, got %q", word, p.tok.Text)
	}

	return p.advance()
}

func (p *Parser) expectIdent() (string, error) {
	tok, err := p.expect(TokIdent, "identifier")
	if err != nil {
		return "", err
	}

	return tok.Text, nil
}

// parseStatement implements the top-level statement grammar (spec.md
// §4.9): use | type | create | from | update | execute | dump | import.
func (p *Parser) parseStatement() (Stmt, error) {
	switch {
	case p.atKeyword("use"):
		return p.parseUse()
	case p.atKeyword("type"):
		return p.parseType()
	case p.atKeyword("create"):
		return p.parseCreate()
	case p.atKeyword("from"):
		return p.parseFrom()
	case p.atKeyword("update"):
		return p.parseUpdate()
	case p.atKeyword("execute"):
		return p.parseExecute()
	case p.atKeyword("dump"):
		return p.parseDump()
	case p.atKeyword("import"):
		return p.parseImport()
	default:
		return nil, ttcore.NewSyntaxError(p.tok.Span, "expected a statement, got %q", p.tok.Text)
	}
}

// parseUse implements: "use" path ["as" "temp"]
func (p *Parser) parseUse() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	path, err := p.parsePathLiteral()
	if err != nil {
		return nil, err
	}

	temp := false

	if p.atKeyword("as") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		if err := p.expectKeyword("temp"); err != nil {
			return nil, err
		}

		temp = true
	}

	return &UseStmt{Path: path, Temporary: temp}, nil
}

// parsePathLiteral accepts either a string literal or a bare identifier
// path (spec.md's "use" accepts an unquoted directory name too).
func (p *Parser) parsePathLiteral() (string, error) {
	if p.at(TokString) {
		tok := p.tok
		return tok.Text, p.advance()
	}

	tok, err := p.expect(TokIdent, "path")
	if err != nil {
		return "", err
	}

	return tok.Text, nil
}

// parseType implements: "type" <raw schema body up to the statement
// separator>. The schema-DSL parser is handed the raw text by the
// executor, so here we only need to capture it.
func (p *Parser) parseType() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	depth := 0

	for {
		if p.at(TokEOF) {
			return nil, ttcore.NewSyntaxError(p.tok.Span, "unterminated type statement")
		}

		if depth == 0 && p.at(TokSemicolon) {
			break
		}

		if p.at(TokLBrace) {
			depth++
		}

		if p.at(TokRBrace) {
			depth--
		}

		sb.WriteString(p.tok.Text)
		sb.WriteRune(' ')

		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return &TypeStmt{Source: sb.String()}, nil
}

// parseCreate implements: "create" IDENT "(" [arg {"," arg}] ")" where
// arg is either a bare identifier (enum variant selector) or
// IDENT "=" expr.
func (p *Parser) parseCreate() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	typeName, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}

	stmt := &CreateStmt{TypeName: typeName}

	for !p.at(TokRParen) {
		if p.at(TokIdent) && !p.peekIsAssignNext() {
			// Bare identifier arg: the enum variant selector.
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}

			stmt.Variant = name
		} else {
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(TokAssign, "'='"); err != nil {
				return nil, err
			}

			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			stmt.Fields = append(stmt.Fields, FieldAssign{Field: field, Value: value})
		}

		if p.at(TokComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}

	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}

	return stmt, nil
}

// peekIsAssignNext reports whether the current identifier is
// immediately followed by '=' — distinguishing "field=expr" args from a
// bare enum-variant-name arg. It does not consume any tokens itself, but
// must re-lex from a saved position since this Lexer has no token
// pushback.
func (p *Parser) peekIsAssignNext() bool {
	saved := *p.lexer
	savedTok := p.tok

	next, err := p.lexer.Next()

	*p.lexer = saved
	p.tok = savedTok

	return err == nil && next.Kind == TokAssign
}

// parseFrom implements:
//
//	"from" IDENT ["select" projection {"," projection}]
//	       ["where" expr] ["group" "by" expr]
//	       ["sort" "by" expr ["asc"|"desc"]]
func (p *Parser) parseFrom() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	typeName, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	stmt := &FromStmt{TypeName: typeName}

	if p.atKeyword("select") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		projs, err := p.parseProjections()
		if err != nil {
			return nil, err
		}

		stmt.Projections = projs
	}

	if p.atKeyword("where") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		stmt.Where = cond
	}

	if p.atKeyword("group") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		if err := p.expectKeyword("by"); err != nil {
			return nil, err
		}

		group, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		stmt.GroupBy = group
	}

	if p.atKeyword("sort") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		if err := p.expectKeyword("by"); err != nil {
			return nil, err
		}

		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		desc := false

		if p.atKeyword("asc") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.atKeyword("desc") {
			desc = true

			if err := p.advance(); err != nil {
				return nil, err
			}
		}

		stmt.Sort = &SortSpec{Expr: expr, Desc: desc}
	}

	return stmt, nil
}

// parseProjections implements: projection {"," projection}
func (p *Parser) parseProjections() ([]Projection, error) {
	var projs []Projection

	for {
		proj, err := p.parseProjection()
		if err != nil {
			return nil, err
		}

		projs = append(projs, proj)

		if !p.at(TokComma) {
			break
		}

		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return projs, nil
}

// parseProjection implements: "*" | aggregate_call ["as" IDENT] |
// field_path ["as" IDENT]
func (p *Parser) parseProjection() (Projection, error) {
	if p.at(TokStar) {
		if err := p.advance(); err != nil {
			return Projection{}, err
		}

		return Projection{Star: true}, nil
	}

	if p.at(TokIdent) && isAggregateFunc(p.tok.Text) && p.peekIsLParenNext() {
		fn := p.tok.Text
		if err := p.advance(); err != nil {
			return Projection{}, err
		}

		if _, err := p.expect(TokLParen, "'('"); err != nil {
			return Projection{}, err
		}

		var arg Expr

		if !p.at(TokRParen) {
			e, err := p.parseExpr()
			if err != nil {
				return Projection{}, err
			}

			arg = e
		}

		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return Projection{}, err
		}

		alias, err := p.parseOptionalAlias()
		if err != nil {
			return Projection{}, err
		}

		return Projection{Aggregate: fn, Arg: arg, Alias: alias}, nil
	}

	path, err := p.parseFieldPath()
	if err != nil {
		return Projection{}, err
	}

	alias, err := p.parseOptionalAlias()
	if err != nil {
		return Projection{}, err
	}

	return Projection{Path: path, Alias: alias}, nil
}

func (p *Parser) parseOptionalAlias() (string, error) {
	if !p.atKeyword("as") {
		return "", nil
	}

	if err := p.advance(); err != nil {
		return "", err
	}

	return p.expectIdent()
}

func (p *Parser) peekIsLParenNext() bool {
	saved := *p.lexer
	savedTok := p.tok

	next, err := p.lexer.Next()

	*p.lexer = saved
	p.tok = savedTok

	return err == nil && next.Kind == TokLParen
}

func isAggregateFunc(name string) bool {
	switch strings.ToLower(name) {
	case "count", "sum", "average", "min", "max":
		return true
	default:
		return false
	}
}

// parseFieldPath implements: IDENT {"." IDENT}
func (p *Parser) parseFieldPath() ([]string, error) {
	first, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	path := []string{first}

	for p.at(TokDot) {
		if err := p.advance(); err != nil {
			return nil, err
		}

		next, err := p.expectIdent()
		if err != nil {
			return nil, err
		}

		path = append(path, next)
	}

	return path, nil
}

// parseUpdate implements:
//
//	"update" IDENT "set" field "=" expr {"," field "=" expr} "where" expr
func (p *Parser) parseUpdate() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	typeName, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	if err := p.expectKeyword("set"); err != nil {
		return nil, err
	}

	stmt := &UpdateStmt{TypeName: typeName}

	for {
		field, err := p.expectIdent()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokAssign, "'='"); err != nil {
			return nil, err
		}

		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		stmt.Sets = append(stmt.Sets, FieldAssign{Field: field, Value: value})

		if !p.at(TokComma) {
			break
		}

		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if p.atKeyword("where") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		stmt.Where = cond
	}

	return stmt, nil
}

// parseExecute implements: "execute" path
func (p *Parser) parseExecute() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	path, err := p.parsePathLiteral()
	if err != nil {
		return nil, err
	}

	return &ExecuteStmt{File: path}, nil
}

// parseDump implements: "dump" path
func (p *Parser) parseDump() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	path, err := p.parsePathLiteral()
	if err != nil {
		return nil, err
	}

	return &DumpStmt{Path: path}, nil
}

// parseImport implements: "import" path
func (p *Parser) parseImport() (Stmt, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	path, err := p.parsePathLiteral()
	if err != nil {
		return nil, err
	}

	return &ImportStmt{Path: path}, nil
}

// --- Expressions ---
//
// Precedence, low to high:
//
//	or
//	and
//	not
//	comparison / string predicate
//	primary

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.atKeyword("or") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpr{Op: "or", Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.atKeyword("and") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpr{Op: "and", Left: left, Right: right}
	}

	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.atKeyword("not") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		return &UnaryExpr{Op: "not", Operand: operand}, nil
	}

	return p.parseComparison()
}

// parseComparison implements a comparison or string predicate over two
// primaries: "=", "!=", "<", "<=", ">", ">=", "starts with", "ends
// with", "contains", "matches".
func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	switch {
	case p.at(TokAssign):
		return p.finishBinary("=", left)
	case p.at(TokNotEq):
		return p.finishBinary("!=", left)
	case p.at(TokLT):
		return p.finishBinary("<", left)
	case p.at(TokLTE):
		return p.finishBinary("<=", left)
	case p.at(TokGT):
		return p.finishBinary(">", left)
	case p.at(TokGTE):
		return p.finishBinary(">=", left)
	case p.atKeyword("starts"):
		return p.finishStringPredicate("starts with", left)
	case p.atKeyword("ends"):
		return p.finishStringPredicate("ends with", left)
	case p.atKeyword("contains"):
		if err := p.advance(); err != nil {
			return nil, err
		}

		pattern, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		return &StringPredicate{Op: "contains", Target: left, Pattern: pattern}, nil
	case p.atKeyword("matches"):
		if err := p.advance(); err != nil {
			return nil, err
		}

		pattern, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		return &StringPredicate{Op: "matches", Target: left, Pattern: pattern}, nil
	default:
		return left, nil
	}
}

func (p *Parser) finishBinary(op string, left Expr) (Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	right, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	return &BinaryExpr{Op: op, Left: left, Right: right}, nil
}

// finishStringPredicate implements the two-word predicates "starts
// with"/"ends with".
func (p *Parser) finishStringPredicate(op string, left Expr) (Expr, error) {
	if err := p.advance(); err != nil { // "starts"/"ends"
		return nil, err
	}

	if err := p.expectKeyword("with"); err != nil {
		return nil, err
	}

	pattern, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	return &StringPredicate{Op: op, Target: left, Pattern: pattern}, nil
}

// parsePrimary implements: number | string | field_path | aggregate_call
func (p *Parser) parsePrimary() (Expr, error) {
	switch {
	case p.at(TokNumber):
		return p.parseNumberLiteral()
	case p.at(TokString):
		tok := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}

		return &Literal{Value: tok.Text}, nil
	case p.at(TokIdent) && isAggregateFunc(p.tok.Text) && p.peekIsLParenNext():
		return p.parseAggregateExpr()
	case p.at(TokIdent) && strings.EqualFold(p.tok.Text, "true"):
		return p.parseBoolLiteral(true)
	case p.at(TokIdent) && strings.EqualFold(p.tok.Text, "false"):
		return p.parseBoolLiteral(false)
	case p.at(TokIdent):
		path, err := p.parseFieldPath()
		if err != nil {
			return nil, err
		}

		return &FieldRef{Path: path}, nil
	default:
		return nil, ttcore.NewSyntaxError(p.tok.Span, "expected an expression, got %q", p.tok.Text)
	}
}

// parseBoolLiteral implements the "true"/"false" bit-primitive literals:
// lexically these are bare identifiers, so they are only recognised here
// rather than given their own token kind.
func (p *Parser) parseBoolLiteral(value bool) (Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	return &Literal{Value: value}, nil
}

func (p *Parser) parseAggregateExpr() (Expr, error) {
	fn := strings.ToLower(p.tok.Text)
	if err := p.advance(); err != nil {
		return nil, err
	}

	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}

	var arg Expr

	if !p.at(TokRParen) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		arg = e
	}

	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}

	return &AggregateExpr{Func: fn, Arg: arg}, nil
}

// parseNumberLiteral implements number ["." number] [type_suffix]. A
// non-empty Suffix pins the literal to a primitive type (spec.md's
// supplemented typed-literal feature, e.g. "42u8").
func (p *Parser) parseNumberLiteral() (Expr, error) {
	tok := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}

	var value any

	if strings.Contains(tok.Text, ".") {
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, ttcore.NewSyntaxError(tok.Span, "invalid number literal %q", tok.Text)
		}

		value = f
	} else {
		n, ok := new(big.Int).SetString(tok.Text, 10)
		if !ok {
			return nil, ttcore.NewSyntaxError(tok.Span, "invalid number literal %q", tok.Text)
		}

		value = n
	}

	if tok.Suffix == "" {
		return &Literal{Value: value}, nil
	}

	return &TypedLiteral{Value: value, TypeName: tok.Suffix}, nil
}
