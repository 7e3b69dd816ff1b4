package domain

type Category string

const (
	CategoryArepas    Category = "arepas"
	CategoryAdiciones Category = "adiciones"
	CategoryBebidas   Category = "bebidas"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryArepas, CategoryAdiciones, CategoryBebidas:
		return true
	}
	return false
}

// Product is a catalog entry. Treated as immutable once loaded.
type Product struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Ingredients string   `json:"ingredients,omitempty" yaml:"ingredients"`
	Price       int64    `json:"price" yaml:"price"` // whole COP
	Category    Category `json:"category" yaml:"category"`
	Emoji       string   `json:"emoji" yaml:"emoji"`
	Popular     bool     `json:"is_popular,omitempty" yaml:"popular"`
	New         bool     `json:"is_new,omitempty" yaml:"new"`
	Rating      float64  `json:"rating" yaml:"rating"`
	Reviews     int      `json:"reviews" yaml:"reviews"`
	Image       string   `json:"image,omitempty" yaml:"image"`
}

type CartLine struct {
	Product             Product `json:"product"`
	Quantity            int     `json:"quantity"`
	SpecialInstructions string  `json:"special_instructions,omitempty"`
}

func (l CartLine) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}
