package stripeapi

// CheckoutSessionParams параметры создания Checkout Session.
type CheckoutSessionParams struct {
	PriceID         string
	UserUID         string
	CustomerEmail   string
	SuccessURL      string
	CancelURL       string
	TrialPeriodDays int
}

// CheckoutSession ответ Stripe на создание Checkout Session.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PortalSession ответ Stripe на создание Billing Portal Session.
type PortalSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Customer объект клиента Stripe.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ErrorResponse тело ошибки Stripe API.
type ErrorResponse struct {
	Err struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
