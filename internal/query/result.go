package query

import "github.com/curious-machines/typed-tables/internal/instance"

// Result is implemented by every kind of statement result an Executor
// can produce.
type Result interface{ result() }

// QueryResult is the outcome of a "from" statement: a set of projected
// rows plus the column names/aliases that produced them, in
// presentation order.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// CreateResult is the outcome of a "create" statement.
type CreateResult struct {
	Ref instance.Ref
}

// UpdateResult is the outcome of an "update" statement.
type UpdateResult struct {
	Count int
}

// UseResult is the outcome of a "use" statement.
type UseResult struct {
	Path      string
	Temporary bool
}

// DumpResult is the outcome of a "dump" statement.
type DumpResult struct {
	Path string
}

// ImportResult is the outcome of an "import" statement.
type ImportResult struct {
	Path string
}

// ExecuteResult is the outcome of an "execute" statement: the results of
// each statement in the executed file, in order.
type ExecuteResult struct {
	Results []Result
}

// TypeResult is the outcome of a "type" statement.
type TypeResult struct{}

func (*QueryResult) result()   {}
func (*CreateResult) result()  {}
func (*UpdateResult) result()  {}
func (*UseResult) result()     {}
func (*DumpResult) result()    {}
func (*ImportResult) result()  {}
func (*ExecuteResult) result() {}
func (*TypeResult) result()    {}
