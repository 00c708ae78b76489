package request

// CheckoutRequest opens a hosted checkout for a marketplace order.
type CheckoutRequest struct {
	BuyerName   string `json:"buyer_name" binding:"required"`
	BuyerEmail  string `json:"buyer_email" binding:"required"`
	PhoneNumber string `json:"phone_number"`
	ListingID   string `json:"listing_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
	TotalAmount int    `json:"total_amount" binding:"required"`
	Currency    string `json:"currency"`
}
