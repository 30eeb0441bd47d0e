package handlers

type BalanceResponse struct {
	UserID  string  `json:"user_id"`
	Balance float64 `json:"balance"`
}

type SpendBonusesRequest struct {
	UserID  string  `json:"user_id"`
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
}

type SpendBonusesResponse struct {
	OrderID      string  `json:"order_id"`
	BonusesSpent float64 `json:"bonuses_spent"`
	NewBalance   float64 `json:"new_balance"`
}

type ApplyPromocodeRequest struct {
	OrderID   string `json:"order_id"`
	Promocode string `json:"promocode"`
}

type PromocodeResponse struct {
	OrderID        string  `json:"order_id"`
	Promocode      string  `json:"promocode"`
	Status         string  `json:"status"`
	DiscountAmount float64 `json:"discount_amount"`
}
