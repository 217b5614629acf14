package enums

import "fmt"

// TransactionType classifies an inventory ledger entry.
type TransactionType string

const (
	TransactionTypeUse     TransactionType = "use"
	TransactionTypeRestock TransactionType = "restock"
	TransactionTypeAdjust  TransactionType = "adjust"
	TransactionTypeWaste   TransactionType = "waste"
	TransactionTypeReturn  TransactionType = "return"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeUse,
	TransactionTypeRestock,
	TransactionTypeAdjust,
	TransactionTypeWaste,
	TransactionTypeReturn,
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Consumes reports whether the transaction type subtracts stock.
func (t TransactionType) Consumes() bool {
	return t == TransactionTypeUse || t == TransactionTypeWaste
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
