package domain

// Balance is per-user accrued bonus credit. It is lazily created at zero on
// first reference and only ever changed by accruals and explicit spends.
type Balance struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

type Promocode struct {
	Code           string  `json:"code"`
	DiscountAmount float64 `json:"discount_amount"`
	Active         bool    `json:"active"`
}

// SeedPromocodes is the fixed promotion catalog every repository backend
// starts with.
func SeedPromocodes() []Promocode {
	return []Promocode{
		{Code: "SUMMER24", DiscountAmount: 500.00, Active: true},
		{Code: "WELCOME10", DiscountAmount: 1000.00, Active: true},
	}
}
