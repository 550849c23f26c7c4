// Package pricing holds the purchase line arithmetic shared by the API server
// and the form layer.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// HPP returns the cost price of a line: harga plus a percentage markup.
//
//	hpp = harga + harga*persentase/100
func HPP(harga, persentase decimal.Decimal) decimal.Decimal {
	return harga.Add(harga.Mul(persentase).Div(hundred))
}

// Total returns the line total for a cost price and a weight.
func Total(hpp, berat decimal.Decimal) decimal.Decimal {
	return hpp.Mul(berat)
}

// Line computes both derived values of a detail line in one call.
func Line(harga, persentase, berat decimal.Decimal) (hpp, total decimal.Decimal) {
	hpp = HPP(harga, persentase)
	return hpp, Total(hpp, berat)
}
