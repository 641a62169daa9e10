package doclayout

import "github.com/zeptools/orderdocs/nullable"

// WeightUnit is forced whenever the net weight wins quantity resolution
const WeightUnit = "kg"

// Row - resolved display values for one item, created per render pass
type Row struct {
	Qty       nullable.Float
	Unit      string
	UnitPrice nullable.Float
	Total     nullable.Float
}

// Resolve picks the displayed quantity, unit, unit price and line total of
// an item. Each field falls back independently, first present value wins:
//
//	quantity: net weight (unit forced to kg) > committed qty > ordered qty
//	total:    stored total > unit price x resolved qty > absent
func Resolve(it Item) Row {
	var row Row
	switch {
	case !it.NetWeight.IsNil():
		row.Qty = it.NetWeight
		row.Unit = WeightUnit
	case !it.CommittedQty.IsNil():
		row.Qty = it.CommittedQty
		row.Unit = it.CommittedUnit.ForceValue()
	case !it.OrderedQty.IsNil():
		row.Qty = it.OrderedQty
		row.Unit = it.OrderedUnit.ForceValue()
	}
	row.UnitPrice = it.UnitPrice
	switch {
	case !it.StoredTotal.IsNil():
		row.Total = it.StoredTotal
	case !it.UnitPrice.IsNil() && !row.Qty.IsNil():
		row.Total = nullable.FloatOf(it.UnitPrice.ForceValue() * row.Qty.ForceValue())
	}
	return row
}
