package cart

import domain "github.com/aq2208/gorder-storefront/internal/entity"

// Action is one of Add, Remove, SetQuantity, SetInstructions or Clear.
type Action interface {
	isAction()
}

type Add struct{ Product domain.Product }

type Remove struct{ ProductID string }

type SetQuantity struct {
	ProductID string
	Quantity  int
}

type SetInstructions struct {
	ProductID    string
	Instructions string
}

type Clear struct{}

func (Add) isAction()             {}
func (Remove) isAction()          {}
func (SetQuantity) isAction()     {}
func (SetInstructions) isAction() {}
func (Clear) isAction()           {}

// Reduce returns the lines that result from applying a to lines.
// The input slice is never modified.
func Reduce(lines []domain.CartLine, a Action) []domain.CartLine {
	switch a := a.(type) {
	case Add:
		if i := indexOf(lines, a.Product.ID); i >= 0 {
			out := clone(lines)
			out[i].Quantity++
			return out
		}
		return append(clone(lines), domain.CartLine{Product: a.Product, Quantity: 1})

	case Remove:
		return without(lines, a.ProductID)

	case SetQuantity:
		if a.Quantity <= 0 {
			return without(lines, a.ProductID)
		}
		i := indexOf(lines, a.ProductID)
		if i < 0 {
			return lines
		}
		out := clone(lines)
		out[i].Quantity = a.Quantity
		return out

	case SetInstructions:
		i := indexOf(lines, a.ProductID)
		if i < 0 {
			return lines
		}
		out := clone(lines)
		out[i].SpecialInstructions = a.Instructions
		return out

	case Clear:
		return nil
	}
	return lines
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i := range lines {
		if lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func clone(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(lines), len(lines)+1)
	copy(out, lines)
	return out
}

func without(lines []domain.CartLine, productID string) []domain.CartLine {
	i := indexOf(lines, productID)
	if i < 0 {
		return lines
	}
	out := make([]domain.CartLine, 0, len(lines)-1)
	out = append(out, lines[:i]...)
	return append(out, lines[i+1:]...)
}
