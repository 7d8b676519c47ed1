package cart

import "github.com/shopspring/decimal"

// Product adalah snapshot katalog saat barang masuk keranjang, bukan referensi live.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	ImageURL string          `json:"image_url,omitempty"`
}

type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (l Line) UnitPrice() decimal.Decimal { return l.Product.Price }

// MaxQuantity is the stock ceiling captured with the product snapshot.
func (l Line) MaxQuantity() int { return l.Product.Stock }

func (l Line) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
