package ingest

// Row is one parsed line of a source file, keyed by column header.
type Row map[string]string

// Reason tags why a row was rejected.
type Reason string

const (
	ReasonMissingSKU   Reason = "missing_sku"
	ReasonMissingName  Reason = "missing_name"
	ReasonInvalidPrice Reason = "invalid_price"
	ReasonInvalidStock Reason = "invalid_stock"
)

// Record is one accepted import row in canonical form.
type Record struct {
	SKU     string
	Name    string
	PriceHT float64
	Stock   int
}

// IsBlankRow reports whether every field is empty after cleaning. Blank CSV
// lines are dropped before validation and never counted as rejected.
func IsBlankRow(row Row) bool {
	for _, value := range row {
		if CleanValue(value) != "" {
			return false
		}
	}
	return true
}

// ValidateRow applies the field mapping to one raw row and classifies it.
// The empty Reason means the record was accepted. Stock shares the numeric
// coercion used for price and is truncated toward zero; fractional quantities
// are accepted deliberately rather than rejected.
func ValidateRow(mapping FieldMapping, row Row) (Record, Reason) {
	sku := CleanValue(row[mapping.Source(FieldSKU)])
	if sku == "" {
		return Record{}, ReasonMissingSKU
	}

	name := CleanValue(row[mapping.Source(FieldName)])
	if name == "" {
		return Record{}, ReasonMissingName
	}

	price, ok := CoerceNumber(row[mapping.Source(FieldPriceHT)])
	if !ok || price < 0 {
		return Record{}, ReasonInvalidPrice
	}

	stock, ok := CoerceNumber(row[mapping.Source(FieldStock)])
	if !ok || stock < 0 {
		return Record{}, ReasonInvalidStock
	}

	return Record{
		SKU:     sku,
		Name:    name,
		PriceHT: price,
		Stock:   int(stock),
	}, ""
}
