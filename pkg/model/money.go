package model

import "fmt"

// Cents is a monetary amount in integer cents. All balances, fines and
// transaction amounts in the system use this type; fractional currency
// never appears.
type Cents int64

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
