package querylang

// Stmt is implemented by every top-level TTQ statement kind (spec.md
// §4.9's statement grammar).
type Stmt interface{ stmt() }

// UseStmt is "use <path> [as temp];" — opens (or switches to) a data
// directory, per the supplemented use-as-temp feature (SPEC_FULL.md §5).
type UseStmt struct {
	Path      string
	Temporary bool
}

// TypeStmt is an inline schema definition: "type … { … };" — its body is
// handed to the schema-DSL parser verbatim.
type TypeStmt struct {
	Source string
}

// FieldAssign is one "field=expr" pair, used by both CreateStmt and
// UpdateStmt.
type FieldAssign struct {
	Field string
	Value Expr
}

// CreateStmt is "create <TypeName>(field=expr, …);". For an enum type,
// the first bare identifier argument (no "=") is the variant name
// (SPEC_FULL.md §5's "create <Enum>(variant, field=expr, …)").
type CreateStmt struct {
	TypeName string
	Variant  string // non-empty for enum creation
	Fields   []FieldAssign
}

// Projection is one entry of a "select" clause.
type Projection struct {
	Star      bool
	Path      []string // field path projection, e.g. a.b.c
	Aggregate string    // "count"/"sum"/"average"/"min"/"max" if non-empty
	Arg       Expr      // aggregate argument, or a general expression projection
	Alias     string
}

// SortSpec is one "sort by <expr> [asc|desc]" clause.
type SortSpec struct {
	Expr Expr
	Desc bool
}

// FromStmt is "from <TypeName> [select …] [where …] [group by …] [sort by …];".
// The parser accepts the clauses only in this order; "sort by" before
// "group by" is a syntax error.
type FromStmt struct {
	TypeName    string
	Projections []Projection
	Where       Expr
	Sort        *SortSpec
	GroupBy     Expr
}

// UpdateStmt is "update <TypeName> set field=expr, … where <cond>;".
type UpdateStmt struct {
	TypeName string
	Sets     []FieldAssign
	Where    Expr
}

// ExecuteStmt is "execute <file>;" — runs another TTQ program file.
type ExecuteStmt struct {
	File string
}

// DumpStmt is "dump <path>;" — serialises the current registry to
// <path>/schema.meta.
type DumpStmt struct {
	Path string
}

// ImportStmt is "import <path>;" — loads a registry from <path>/schema.meta.
type ImportStmt struct {
	Path string
}

func (*UseStmt) stmt()     {}
func (*TypeStmt) stmt()    {}
func (*CreateStmt) stmt()  {}
func (*FromStmt) stmt()    {}
func (*UpdateStmt) stmt()  {}
func (*ExecuteStmt) stmt() {}
func (*DumpStmt) stmt()    {}
func (*ImportStmt) stmt()  {}

// Expr is implemented by every TTQ expression node.
type Expr interface{ expr() }

// Literal is an untyped scalar literal: a number (float64 or *big.Int per
// its lexical shape), a string, or a bool.
type Literal struct {
	Value any
}

// TypedLiteral pins a numeric literal to an explicit primitive width,
// e.g. "42u8" or "3.14f64" (SPEC_FULL.md §5's typed-literal feature).
type TypedLiteral struct {
	Value    any
	TypeName string
}

// FieldRef is a (possibly dotted) field path reference, e.g. "a.b.c".
type FieldRef struct {
	Path []string
}

// BinaryExpr is a comparison or boolean combinator: "=", "!=", "<", "<=",
// ">", ">=", "and", "or".
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// UnaryExpr is "not <expr>".
type UnaryExpr struct {
	Op      string
	Operand Expr
}

// StringPredicate is "<target> starts with|ends with|contains|matches <pattern>".
type StringPredicate struct {
	Op      string
	Target  Expr
	Pattern Expr
}

// AggregateExpr is an aggregate call used as an expression: count(),
// sum(expr), average(expr), min(expr), max(expr).
type AggregateExpr struct {
	Func string
	Arg  Expr // nil for count()
}

func (*Literal) expr()         {}
func (*TypedLiteral) expr()    {}
func (*FieldRef) expr()        {}
func (*BinaryExpr) expr()      {}
func (*UnaryExpr) expr()       {}
func (*StringPredicate) expr() {}
func (*AggregateExpr) expr()   {}
