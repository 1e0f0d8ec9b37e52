// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod is what the shopper chose to pay with. Payment itself is
// handled outside this service.
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodStripe       PaymentMethod = "stripe"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// Order is the immutable, priced record of a completed checkout
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID        *uint         `gorm:"index" json:"user_id"`
	VoucherID     *uint         `gorm:"index" json:"voucher_id"`
	Status        OrderStatus   `gorm:"not null;size:20;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;size:20;default:'pending'" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"not null;size:30" json:"payment_method"`
	Currency      string        `gorm:"size:3;default:'USD'" json:"currency"`

	// Financial Information
	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"tax_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"shipping_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`

	// Addresses
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	Notes string `gorm:"type:text" json:"notes"`

	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is a frozen copy of a cart line. It keeps no live link to
// the product beyond its id.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	ProductName string          `gorm:"not null;size:255" json:"product_name"`
	ProductSKU  string          `gorm:"not null;size:100" json:"product_sku"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Address is a postal address frozen on the order (embedded in Order)
type Address struct {
	FirstName string `gorm:"size:255" json:"first_name"`
	LastName  string `gorm:"size:255" json:"last_name"`
	Company   string `gorm:"size:255" json:"company,omitempty"`
	Address1  string `gorm:"column:address_1;size:255" json:"address_1"`
	Address2  string `gorm:"column:address_2;size:255" json:"address_2,omitempty"`
	City      string `gorm:"size:255" json:"city"`
	State     string `gorm:"size:255" json:"state"`
	Postcode  string `gorm:"size:20" json:"postcode"`
	Country   string `gorm:"size:2" json:"country"`
	Email     string `gorm:"size:255" json:"email,omitempty"`
	Phone     string `gorm:"size:20" json:"phone,omitempty"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// ItemCount sums item quantities
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// ConfirmationPath is where the shopper is sent after placing the order
func (o *Order) ConfirmationPath() string {
	return "/orders/" + o.OrderNumber
}

// Valid reports whether m is one of the accepted payment methods
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPayPal, PaymentMethodStripe, PaymentMethodBankTransfer:
		return true
	}
	return false
}
