package request

import "rescuebite/internal/usecase/interfaces"

// ProviderCallback is the STK push result envelope posted by the payment
// provider. The interesting part is `response`; `status` only says whether
// the provider considers the request processed, not whether it succeeded.
type ProviderCallback struct {
	ForwardURL string                  `json:"forward_url"`
	Status     bool                    `json:"status"`
	Response   interfaces.StatusResult `json:"response"`
}
