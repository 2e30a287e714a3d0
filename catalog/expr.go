package catalog

import (
	"fmt"

	"github.com/mahodb/sqltable/sql"
)

// Expr is a column default expression. The core only ever recognizes
// constant-valued expressions; a non-constant default (e.g. now()) is an
// explicit precondition violation rather than something silently
// unsupported.
type Expr interface {
	// Eval returns the expression's value. For a constant expression this
	// never fails; the error return exists so a caller-supplied Expr
	// implementation can reject non-constant evaluation explicitly instead
	// of the failure surfacing as a wrong value later.
	Eval() (sql.Value, error)
	// IsConstant reports whether the expression is safe to use as a
	// schema-default (i.e. it was constructed as a Literal).
	IsConstant() bool
}

// Literal is a constant-valued default expression.
type Literal struct {
	Value sql.Value
}

func (l Literal) Eval() (sql.Value, error) { return l.Value, nil }

func (l Literal) IsConstant() bool { return true }

// nonConstant is an Expr that reports itself as not constant. Nothing in
// this package constructs one outside tests, which use it to exercise
// RequireConstant and Schema.Validate.
type nonConstant struct {
	Expr
}

func (nonConstant) IsConstant() bool { return false }

// RequireConstant panics if e is not a constant expression. Default-value
// resolution (project.Fill) requires this invariant to already hold by the
// time a Schema is registered; UpdateSchema is the enforcement point.
func RequireConstant(colOid sql.ColOid, e Expr) {
	if e != nil && !e.IsConstant() {
		panic(fmt.Sprintf("catalog: column %d: default expression is not constant", colOid))
	}
}
