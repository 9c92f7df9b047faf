package enums

// InvoiceStatus is the derived lifecycle state of an invoice. It is computed
// at read time from the returned/removed radio sets and never persisted.
type InvoiceStatus string

const (
	InvoiceStatusOpen      InvoiceStatus = "aberta"
	InvoiceStatusFinalized InvoiceStatus = "finalizada"
)

// String implements fmt.Stringer.
func (s InvoiceStatus) String() string {
	return string(s)
}
