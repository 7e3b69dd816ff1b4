// Package catalog serves the read-only product list the storefront sells.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var defaultProducts []byte

var ErrNotFound = errors.New("product not found")

// CategoryAll matches every product when filtering.
const CategoryAll = "all"

type CategoryInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

var categories = []CategoryInfo{
	{ID: CategoryAll, Name: "Todo", Emoji: "🍽️"},
	{ID: string(domain.CategoryArepas), Name: "Arepas Especiales", Emoji: "🫓"},
	{ID: string(domain.CategoryAdiciones), Name: "Adiciones", Emoji: "➕"},
	{ID: string(domain.CategoryBebidas), Name: "Bebidas", Emoji: "🥤"},
}

type Query struct {
	Category string
	Search   string
}

type Catalog struct {
	products []domain.Product
	byID     map[string]int
}

type file struct {
	Products []domain.Product `yaml:"products"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultProducts)
}

// Open loads path, or the embedded catalog when path is empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Catalog, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Products)
}

// New validates products and builds the lookup index.
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		switch {
		case p.ID == "":
			return nil, fmt.Errorf("product #%d: empty id", i)
		case !p.Category.Valid():
			return nil, fmt.Errorf("product %q: unknown category %q", p.ID, p.Category)
		case p.Price < 0:
			return nil, fmt.Errorf("product %q: negative price", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("product %q: duplicate id", p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) All() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Get(id string) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return c.products[i], nil
}

// Filter keeps catalog order. Search is a case-insensitive substring match
// on name or description.
func (c *Catalog) Filter(q Query) []domain.Product {
	cat := strings.ToLower(strings.TrimSpace(q.Category))
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := []domain.Product{}
	for _, p := range c.products {
		if cat != "" && cat != CategoryAll && string(p.Category) != cat {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Catalog) Popular() []domain.Product {
	out := []domain.Product{}
	for _, p := range c.products {
		if p.Popular {
			out = append(out, p)
		}
	}
	return out
}

func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories)
	return out
}
