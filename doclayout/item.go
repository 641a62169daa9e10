package doclayout

import "github.com/zeptools/orderdocs/nullable"

// Packaging - one returnable-packaging sub-row (pallets, crates, ...).
// Informational, never billable.
type Packaging struct {
	Label string
	Count int
}

// Item - the layout engine's read-only view of one order position.
// Any of the raw quantity/price fields may be absent; Resolve picks the
// displayed values.
type Item struct {
	Code        string
	Description string

	Packaging    []Packaging
	BatchNumbers []string

	OrderedQty    nullable.Float
	OrderedUnit   nullable.String
	CommittedQty  nullable.Float
	CommittedUnit nullable.String
	NetWeight     nullable.Float // kg
	UnitPrice     nullable.Float
	StoredTotal   nullable.Float // precomputed line total, wins over price x qty
}
