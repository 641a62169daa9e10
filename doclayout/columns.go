package doclayout

// Column - one table column as absolute x offset plus width
type Column struct {
	X float64
	W float64
}

// Columns - the six-column item table layout.
// Boundaries partition [region.Left, region.Right] exactly: widths are
// scaled proportionally from nominal values and the last column absorbs
// the rounding remainder.
type Columns struct {
	Code  Column
	Desc  Column
	Batch Column
	Qty   Column
	Price Column
	Total Column
}

// nominal widths, scaled to the actual region width
const (
	nominalCode  = 60
	nominalDesc  = 170
	nominalBatch = 85
	nominalQty   = 75
	nominalPrice = 65
	nominalTotal = 75
	nominalBase  = nominalCode + nominalDesc + nominalBatch + nominalQty + nominalPrice + nominalTotal
)

func NewColumns(r Region) Columns {
	scale := r.Width() / nominalBase
	x := r.Left
	next := func(nominal float64) Column {
		c := Column{X: x, W: nominal * scale}
		x += c.W
		return c
	}
	cols := Columns{
		Code:  next(nominalCode),
		Desc:  next(nominalDesc),
		Batch: next(nominalBatch),
		Qty:   next(nominalQty),
		Price: next(nominalPrice),
	}
	// last column takes whatever is left so the partition is exact
	cols.Total = Column{X: x, W: r.Right - x}
	return cols
}
