package checkout

import (
	"strings"

	domain "github.com/aq2208/gorder-storefront/internal/entity"
)

// Form is the customer input collected before submitting.
type Form struct {
	Type     domain.OrderType    `json:"order_type"`
	Customer domain.CustomerInfo `json:"customer"`
}

func newForm() Form {
	return Form{Type: domain.OrderTypeDineIn}
}

// Missing lists the required fields that are still blank for the form's order type.
func (f Form) Missing() []string {
	var out []string
	c := f.Customer
	if blank(c.Name) {
		out = append(out, "name")
	}
	if blank(c.Phone) {
		out = append(out, "phone")
	}
	switch f.Type {
	case domain.OrderTypeDineIn:
		if blank(c.TableNumber) {
			out = append(out, "table_number")
		}
	case domain.OrderTypeDelivery:
		if blank(c.Address) {
			out = append(out, "address")
		}
	default:
		out = append(out, "order_type")
	}
	return out
}

func (f Form) Valid() bool { return len(f.Missing()) == 0 }

func blank(s string) bool { return strings.TrimSpace(s) == "" }
