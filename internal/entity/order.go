package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusDelivered: 4,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next is a forward step.
func (s Status) CanAdvanceTo(next Status) bool {
	from, ok1 := statusRank[s]
	to, ok2 := statusRank[next]
	return ok1 && ok2 && to > from
}

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeDelivery OrderType = "delivery"
)

var ErrUnknownOrderType = errors.New("unknown order type")

// ParseOrderType accepts the wire values and the storefront's Spanish labels.
func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dine-in", "mesa":
		return OrderTypeDineIn, nil
	case "delivery", "domicilio":
		return OrderTypeDelivery, nil
	}
	return "", ErrUnknownOrderType
}

func EstimatedTime(t OrderType) string {
	if t == OrderTypeDineIn {
		return "15-20 minutes"
	}
	return "30-45 minutes"
}

type CustomerInfo struct {
	Name                 string `json:"name"`
	Phone                string `json:"phone"`
	TableNumber          string `json:"table_number,omitempty"`
	Address              string `json:"address,omitempty"`
	DeliveryInstructions string `json:"delivery_instructions,omitempty"`
}

type Order struct {
	ID            string       `json:"id"`
	Items         []CartLine   `json:"items"`
	Customer      CustomerInfo `json:"customer"`
	Type          OrderType    `json:"order_type"`
	Total         int64        `json:"total"`
	Status        Status       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	EstimatedTime string       `json:"estimated_time"`
}

// FormatPrice renders a whole-peso amount the way the storefront shows it, e.g. "$ 16.900".
func FormatPrice(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$ " + b.String()
	}
	return "$ " + b.String()
}
