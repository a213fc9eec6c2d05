package model

// Customer is the identity attached to a gateway charge. The storefront does not
// collect billing identity, so these come from a fixed synthetic pool.
type Customer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"` // CPF
}
