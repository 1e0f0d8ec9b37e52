package checkout

import (
	"strings"

	"github.com/storefront-labs/storefront-api/internal/domain/order"
)

// ApplyVoucherInput represents a voucher code submission
type ApplyVoucherInput struct {
	Code string `json:"voucher_code" binding:"required,max=50"`
}

// AddressInput represents a postal address on the checkout form
type AddressInput struct {
	FirstName string `json:"first_name" binding:"required,max=255"`
	LastName  string `json:"last_name" binding:"required,max=255"`
	Company   string `json:"company" binding:"omitempty,max=255"`
	Address1  string `json:"address_1" binding:"required,max=255"`
	Address2  string `json:"address_2" binding:"omitempty,max=255"`
	City      string `json:"city" binding:"required,max=255"`
	State     string `json:"state" binding:"required,max=255"`
	Postcode  string `json:"postcode" binding:"required,max=20"`
	Country   string `json:"country" binding:"required,max=2"`
}

// BillingAddressInput is an address with the buyer's contact details
type BillingAddressInput struct {
	AddressInput
	Email string `json:"email" binding:"required,email,max=255"`
	Phone string `json:"phone" binding:"required,max=20"`
}

// PlaceOrderInput represents the checkout form
type PlaceOrderInput struct {
	PaymentMethod   order.PaymentMethod `json:"payment_method" binding:"required,oneof=credit_card paypal stripe bank_transfer"`
	BillingAddress  BillingAddressInput `json:"billing_address"`
	ShippingAddress AddressInput        `json:"shipping_address"`
	Notes           string              `json:"notes" binding:"omitempty,max=1000"`
}

// ToAddress freezes the input into an order address
func (a AddressInput) ToAddress() order.Address {
	return order.Address{
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Company:   strings.TrimSpace(a.Company),
		Address1:  strings.TrimSpace(a.Address1),
		Address2:  strings.TrimSpace(a.Address2),
		City:      strings.TrimSpace(a.City),
		State:     strings.TrimSpace(a.State),
		Postcode:  strings.TrimSpace(a.Postcode),
		Country:   strings.ToUpper(strings.TrimSpace(a.Country)),
	}
}

// ToAddress freezes the input into an order address with contact details
func (a BillingAddressInput) ToAddress() order.Address {
	addr := a.AddressInput.ToAddress()
	addr.Email = strings.TrimSpace(a.Email)
	addr.Phone = strings.TrimSpace(a.Phone)
	return addr
}
