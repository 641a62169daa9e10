package orders

import "github.com/zeptools/orderdocs/nullable"

// Order - one customer order, read once by value before a render begins
type Order struct {
	ID             string          `json:"id"`
	OrderNo        nullable.String `json:"order_no"`
	InvoiceNo      nullable.String `json:"invoice_no"`
	CustomerID     string          `json:"customer_id"`
	VATRatePercent nullable.Float  `json:"vat_rate_percent"`
	DeliveryDate   nullable.Time   `json:"delivery_date"`
	LineItemIDs    []string        `json:"line_item_ids"`
}

// Customer - addressee of a document. Address is either the flat form or
// the structured street/postal/city fields; any of them may be absent.
type Customer struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Address nullable.String `json:"address"`
	Street  nullable.String `json:"street"`
	Postal  nullable.String `json:"postal"`
	City    nullable.String `json:"city"`
}

// AddressLines flattens whichever address shape is present
func (c *Customer) AddressLines() []string {
	lines := []string{c.Name}
	if !c.Address.IsNil() {
		return append(lines, c.Address.ForceValue())
	}
	if !c.Street.IsNil() {
		lines = append(lines, c.Street.ForceValue())
	}
	cityLine := ""
	if !c.Postal.IsNil() {
		cityLine = c.Postal.ForceValue()
	}
	if !c.City.IsNil() {
		if cityLine != "" {
			cityLine += " "
		}
		cityLine += c.City.ForceValue()
	}
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	return lines
}

// Packaging - returnable packaging attached to a line item
type Packaging struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// LineItem - one order position with its raw quantity/price fields.
// Which of the fields are present depends on how far picking got.
type LineItem struct {
	ID           string      `json:"id"`
	Code         string      `json:"code"`
	Description  string      `json:"description"`
	Packaging    []Packaging `json:"packaging"`
	BatchNumbers []string    `json:"batch_numbers"`

	OrderedQty    nullable.Float  `json:"ordered_qty"`
	OrderedUnit   nullable.String `json:"ordered_unit"`
	CommittedQty  nullable.Float  `json:"committed_qty"`
	CommittedUnit nullable.String `json:"committed_unit"`
	NetWeight     nullable.Float  `json:"net_weight"`
	UnitPrice     nullable.Float  `json:"unit_price"`
	StoredTotal   nullable.Float  `json:"stored_total"`
}
