// Package tx defines the Transaction record that backends append to their
// transaction logs, its text serialization, and the field-level structural
// diff used by the cross-check engine.
//
// A Transaction is one protocol-significant event: a kind label and the
// ordered string parameters of that operation. Equality is structural and
// order-sensitive:
//
//	tx.Equal(tx.New("get", "a"), tx.New("get", "a")) // true
//	tx.Equal(tx.New("get", "a", "b"), tx.New("get", "b", "a")) // false
//
// # Serialization
//
// Transactions are stored as compact JSON text:
//
//	{"kind":"filter","params":["scoreboard/resource.ron"]}
//
// Params is always encoded as a list (never null) and HTML escaping is
// disabled so the stored text is byte-stable across writers.
package tx
