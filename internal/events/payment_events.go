package events

// PaymentSucceededEvent is the wire contract between the payment service and
// the bonus service. It is the only thing that crosses the broker: no payment
// identifier, no headers, no versioning.
type PaymentSucceededEvent struct {
	OrderID string  `json:"order_id"`
	UserID  string  `json:"user_id"`
	Amount  float64 `json:"amount"`
}
