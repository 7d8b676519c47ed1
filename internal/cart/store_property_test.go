package cart

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var catalog = []Product{
	{ID: "hat", Name: "Hat", Price: decimal.RequireFromString("20.00"), Stock: 5},
	{ID: "belt", Name: "Belt", Price: decimal.RequireFromString("5.00"), Stock: 10},
	{ID: "pin", Name: "Pin", Price: decimal.RequireFromString("1.25"), Stock: 1},
	{ID: "boots", Name: "Boots", Price: decimal.RequireFromString("120"), Stock: 0},
}

func fingerprint(s *Store) string {
	var b strings.Builder
	for _, l := range s.Lines() {
		fmt.Fprintf(&b, "%s=%d;", l.Product.ID, l.Quantity)
	}
	return b.String()
}

// holds checks what must be true of the cart after any operation.
func holds(s *Store) bool {
	seen := map[string]bool{}
	subtotal, count := decimal.Zero, 0
	for _, l := range s.Lines() {
		if seen[l.Product.ID] || l.Quantity < 1 || l.Quantity > l.Product.Stock {
			return false
		}
		seen[l.Product.ID] = true
		subtotal = subtotal.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		count += l.Quantity
	}
	return !seen["boots"] && s.Subtotal().Equal(subtotal) && s.TotalItemCount() == count
}

func TestStore_InvariantsHoldForAnySequence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("quantities stay in [1, stock] and totals match lines", prop.ForAll(
		func(ops, targets, qtys []int) bool {
			s := New()
			notified := 0
			s.Subscribe(func(Snapshot) { notified++ })

			n := min(len(ops), len(targets), len(qtys))
			for i := 0; i < n; i++ {
				p := catalog[targets[i]]
				before, seen := fingerprint(s), notified
				switch ops[i] {
				case 0:
					s.Add(p, qtys[i])
				case 1:
					s.SetQuantity(p.ID, qtys[i])
				case 2:
					s.Remove(p.ID)
				default:
					s.Clear()
				}
				changed := fingerprint(s) != before
				if !holds(s) {
					return false
				}
				// observers fire exactly once per real change, never otherwise
				if changed && notified != seen+1 || !changed && notified != seen {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 3)),
		gen.SliceOf(gen.IntRange(0, len(catalog)-1)),
		gen.SliceOf(gen.IntRange(-3, 8)),
	))

	properties.TestingRun(t)
}
