package enums

// ItemStatus is the derived stock state of an inventory item. It is never
// written directly; the ledger recomputes it on every transaction.
type ItemStatus string

const (
	ItemStatusInStock    ItemStatus = "in_stock"
	ItemStatusLowStock   ItemStatus = "low_stock"
	ItemStatusOutOfStock ItemStatus = "out_of_stock"
)

// StatusForStock derives the item status from current stock and minimum threshold.
func StatusForStock(current, minimum int) ItemStatus {
	switch {
	case current <= 0:
		return ItemStatusOutOfStock
	case current <= minimum:
		return ItemStatusLowStock
	default:
		return ItemStatusInStock
	}
}
