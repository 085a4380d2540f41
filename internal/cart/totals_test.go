package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	tests := map[string]struct {
		items []Item
		want  Totals
	}{
		"empty cart is all zeros": {
			items: nil,
			want:  Totals{ItemsPrice: "0.00", ShippingPrice: "0.00", TaxPrice: "0.00", TotalPrice: "0.00"},
		},
		"single line below free shipping": {
			items: []Item{{ProductID: "p1", Quantity: 2, Price: 24.99}},
			want:  Totals{ItemsPrice: "49.98", ShippingPrice: "10.00", TaxPrice: "7.50", TotalPrice: "67.48"},
		},
		"free shipping boundary is exclusive at 100": {
			items: []Item{{ProductID: "p1", Quantity: 1, Price: 100}},
			want:  Totals{ItemsPrice: "100.00", ShippingPrice: "10.00", TaxPrice: "15.00", TotalPrice: "125.00"},
		},
		"one cent past the boundary ships free": {
			items: []Item{{ProductID: "p1", Quantity: 1, Price: 100.01}},
			want:  Totals{ItemsPrice: "100.01", ShippingPrice: "0.00", TaxPrice: "15.00", TotalPrice: "115.01"},
		},
		"tax rounds half up": {
			// 15% of 0.10 is 0.015, which rounds to 0.02
			items: []Item{{ProductID: "p1", Quantity: 1, Price: 0.10}},
			want:  Totals{ItemsPrice: "0.10", ShippingPrice: "10.00", TaxPrice: "0.02", TotalPrice: "10.12"},
		},
		"free shipping order rounds tax independently": {
			// 15% of 149.90 is 22.485, rounded to 22.49 before the final sum
			items: []Item{{ProductID: "p1", Quantity: 2, Price: 74.95}},
			want:  Totals{ItemsPrice: "149.90", ShippingPrice: "0.00", TaxPrice: "22.49", TotalPrice: "172.39"},
		},
		"multiple lines accumulate": {
			items: []Item{
				{ProductID: "p1", Quantity: 3, Price: 19.99},
				{ProductID: "p2", Quantity: 1, Price: 5.50},
			},
			want: Totals{ItemsPrice: "65.47", ShippingPrice: "10.00", TaxPrice: "9.82", TotalPrice: "85.29"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := ComputeTotals(tc.items)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeTotalsIsDeterministic(t *testing.T) {
	items := []Item{
		{ProductID: "p1", Quantity: 7, Price: 13.37},
		{ProductID: "p2", Quantity: 2, Price: 0.99},
	}
	first := ComputeTotals(items)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ComputeTotals(items))
	}
}
