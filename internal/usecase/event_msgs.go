package usecase

import "time"

// Published on RabbitMQ once a checkout has finished.
type OrderCompletedMsg struct {
	OrderID       string    `json:"orderId"`
	OrderType     string    `json:"orderType"`
	CustomerName  string    `json:"customerName"`
	Items         int       `json:"items"`
	Total         int64     `json:"total"`
	EstimatedTime string    `json:"estimatedTime"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Sent by the kitchen on Kafka
type OrderStatusChangedMsg struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"` // e.g. "preparing"
}
