package cart

import "github.com/shopspring/decimal"

// Snapshot is what observers receive after every change.
type Snapshot struct {
	Lines     []Line
	Subtotal  decimal.Decimal
	ItemCount int
}

type Observer func(Snapshot)

// Store holds one shopper's cart. It is owned by a single session and is not
// safe for concurrent use.
type Store struct {
	lines     []Line
	observers map[int]Observer
	nextObs   int
}

func New() *Store {
	return &Store{observers: map[int]Observer{}}
}

// Subscribe registers fn and returns a func that removes it again.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() { delete(s.observers, id) }
}

// Add merges qty into an existing line or appends a new one. The result is
// clamped to [1, stock]; products without stock are ignored.
func (s *Store) Add(p Product, qty int) {
	if p.Stock < 1 {
		return
	}
	if i := s.index(p.ID); i >= 0 {
		next := clamp(s.lines[i].Quantity+qty, s.lines[i].MaxQuantity())
		if next == s.lines[i].Quantity {
			return
		}
		s.lines[i].Quantity = next
		s.notify()
		return
	}
	s.lines = append(s.lines, Line{Product: p, Quantity: clamp(qty, p.Stock)})
	s.notify()
}

// SetQuantity replaces the quantity of a line; qty <= 0 removes it.
func (s *Store) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		s.Remove(productID)
		return
	}
	i := s.index(productID)
	if i < 0 {
		return
	}
	next := clamp(qty, s.lines[i].MaxQuantity())
	if next == s.lines[i].Quantity {
		return
	}
	s.lines[i].Quantity = next
	s.notify()
}

func (s *Store) Remove(productID string) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.notify()
}

func (s *Store) Clear() {
	if len(s.lines) == 0 {
		return
	}
	s.lines = nil
	s.notify()
}

func (s *Store) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Total())
	}
	return total
}

func (s *Store) TotalItemCount() int {
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a copy in insertion order.
func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Len() int { return len(s.lines) }

func (s *Store) index(productID string) int {
	for i, l := range s.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) notify() {
	if len(s.observers) == 0 {
		return
	}
	snap := Snapshot{Lines: s.Lines(), Subtotal: s.Subtotal(), ItemCount: s.TotalItemCount()}
	for _, fn := range s.observers {
		fn(snap)
	}
}

func clamp(qty, ceiling int) int {
	if qty > ceiling {
		qty = ceiling
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}
