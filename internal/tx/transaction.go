package tx

import (
	"slices"
	"strconv"
	"strings"
)

// Transaction records one protocol-significant operation performed by a backend.
// Treat values as immutable once constructed.
type Transaction struct {
	// Kind identifies the operation (e.g., "init", "filter", "get").
	Kind string `json:"kind" yaml:"kind"`

	// Params holds the positional arguments of the operation. Order matters.
	Params []string `json:"params" yaml:"params"`
}

// New creates a Transaction. The params slice is copied.
func New(kind string, params ...string) Transaction {
	p := make([]string, len(params))
	copy(p, params)
	return Transaction{Kind: kind, Params: p}
}

// Equal reports whether a and b are structurally identical.
// A nil Params and an empty Params compare equal.
func Equal(a, b Transaction) bool {
	return a.Kind == b.Kind && slices.Equal(a.Params, b.Params)
}

// Equal reports whether t is structurally identical to other.
func (t Transaction) Equal(other Transaction) bool {
	return Equal(t, other)
}

// Fields returns the ordered named fields of the transaction.
// Implements Fielder.
func (t Transaction) Fields() []Field {
	return []Field{
		{Name: "kind", Values: []string{t.Kind}},
		{Name: "params", Values: t.Params, List: true},
	}
}

// String renders the transaction as kind("p0", "p1").
func (t Transaction) String() string {
	var b strings.Builder
	b.WriteString(t.Kind)
	b.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(p))
	}
	b.WriteByte(')')
	return b.String()
}
