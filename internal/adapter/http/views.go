package http

import (
	"github.com/aq2208/gorder-storefront/internal/checkout"
	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/aq2208/gorder-storefront/internal/session"
)

type lineView struct {
	domain.CartLine
	Subtotal          int64  `json:"subtotal"`
	SubtotalFormatted string `json:"subtotal_formatted"`
}

type cartView struct {
	Items               []lineView `json:"items"`
	TotalItems          int        `json:"total_items"`
	TotalPrice          int64      `json:"total_price"`
	TotalPriceFormatted string     `json:"total_price_formatted"`
	Locked              bool       `json:"locked"`
}

func newCartView(s *session.Session) cartView {
	lines, total := s.Cart().Snapshot()
	v := cartView{
		Items:               make([]lineView, 0, len(lines)),
		TotalPrice:          total,
		TotalPriceFormatted: domain.FormatPrice(total),
		Locked:              s.Busy(),
	}
	for _, l := range lines {
		v.TotalItems += l.Quantity
		v.Items = append(v.Items, lineView{
			CartLine:          l,
			Subtotal:          l.Subtotal(),
			SubtotalFormatted: domain.FormatPrice(l.Subtotal()),
		})
	}
	return v
}

type orderView struct {
	domain.Order
	TotalFormatted string `json:"total_formatted"`
}

func newOrderView(o domain.Order) orderView {
	return orderView{Order: o, TotalFormatted: domain.FormatPrice(o.Total)}
}

type checkoutView struct {
	State     string        `json:"state"`
	Form      checkout.Form `json:"form"`
	Missing   []string      `json:"missing"`
	CanSubmit bool          `json:"can_submit"`
	Order     *orderView    `json:"order,omitempty"`
	Error     string        `json:"error,omitempty"`
	Cart      cartView      `json:"cart"`
}

func newCheckoutView(s *session.Session, f *checkout.Flow) checkoutView {
	form := f.Form()
	v := checkoutView{
		State:     f.State().String(),
		Form:      form,
		Missing:   form.Missing(),
		CanSubmit: f.CanSubmit(),
		Cart:      newCartView(s),
	}
	if v.Missing == nil {
		v.Missing = []string{}
	}
	if o, ok := f.Order(); ok {
		ov := newOrderView(o)
		v.Order = &ov
	}
	if err := f.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}
