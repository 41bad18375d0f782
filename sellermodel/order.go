package sellermodel

import (
	"encoding/json"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderAccepted       OrderStatus = "accepted"
	OrderReadyForPickup OrderStatus = "ready_for_pickup"
	OrderPickedUp       OrderStatus = "picked_up"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
	OrderRejected       OrderStatus = "rejected"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderPending:        {},
	OrderAccepted:       {},
	OrderReadyForPickup: {},
	OrderPickedUp:       {},
	OrderOutForDelivery: {},
	OrderDelivered:      {},
	OrderCancelled:      {},
	OrderRejected:       {},
}

// sellerActions lists the statuses a seller may move a sub-order to. Later
// transitions belong to the delivery partner.
var sellerActions = map[OrderStatus][]OrderStatus{
	OrderPending:  {OrderAccepted, OrderRejected},
	OrderAccepted: {OrderReadyForPickup},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := orderStatuses[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderStatus, s)
	}
	return status, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// SellerActions returns the statuses the seller can set from s.
func (s OrderStatus) SellerActions() []OrderStatus {
	return append([]OrderStatus(nil), sellerActions[s]...)
}

// Final reports whether no further transition is expected.
func (s OrderStatus) Final() bool {
	switch s {
	case OrderDelivered, OrderCancelled, OrderRejected:
		return true
	}
	return false
}

type OrderItem struct {
	ProductID   ID     `json:"productId,omitempty"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit,omitempty"`
	ItemTotal   Amount `json:"itemTotal"`
}

type DeliveryAddress struct {
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	Pincode      string `json:"pincode"`
}

// SubOrder is the seller's share of a customer order.
type SubOrder struct {
	ID              ID               `json:"id"`
	SubOrderNumber  string           `json:"subOrderNumber"`
	Status          OrderStatus      `json:"status"`
	Total           Amount           `json:"total"`
	CustomerName    string           `json:"customerName,omitempty"`
	CustomerPhone   string           `json:"customerPhone,omitempty"`
	DeliveryCity    string           `json:"deliveryCity,omitempty"`
	DeliveryAddress *DeliveryAddress `json:"deliveryAddress,omitempty"`
	PaymentMethod   string           `json:"paymentMethod,omitempty"`
	ProductName     string           `json:"productName,omitempty"`
	Items           []OrderItem      `json:"items,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// UnmarshalJSON also accepts the lower-cased column names some backend routes
// return (subordernumber, createdat) and the cretedAt typo of the details route.
func (o *SubOrder) UnmarshalJSON(data []byte) error {
	type plain SubOrder
	var aux struct {
		plain
		LowerNumber  string     `json:"subordernumber"`
		LowerCreated *time.Time `json:"createdat"`
		TypoCreated  *time.Time `json:"cretedAt"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = SubOrder(aux.plain)
	if o.SubOrderNumber == "" {
		o.SubOrderNumber = aux.LowerNumber
	}
	if o.CreatedAt.IsZero() {
		switch {
		case aux.LowerCreated != nil:
			o.CreatedAt = *aux.LowerCreated
		case aux.TypoCreated != nil:
			o.CreatedAt = *aux.TypoCreated
		}
	}
	return nil
}

// Summary is a one-line description used in listings.
func (o SubOrder) Summary() string {
	name := o.ProductName
	if len(o.Items) > 0 && o.Items[0].ProductName != "" {
		name = o.Items[0].ProductName
	}
	if name == "" {
		name = "Order Item"
	}
	if extra := len(o.Items) - 1; extra > 0 {
		name = fmt.Sprintf("%s +%d more", name, extra)
	}
	return name
}

type OrderDetails struct {
	SubOrder SubOrder `json:"subOrder"`
}

type StatusUpdate struct {
	Status OrderStatus `json:"status"`
}

type RecentOrder struct {
	ID           ID          `json:"id"`
	OrderNumber  string      `json:"orderNumber"`
	CustomerName string      `json:"customerName"`
	TotalAmount  Amount      `json:"totalAmount"`
	Status       OrderStatus `json:"status"`
}

type DashboardStats struct {
	TodaySales     Amount        `json:"todaySales"`
	PendingOrders  int           `json:"pendingOrders"`
	ActiveProducts int           `json:"activeProducts"`
	NewReviews     int           `json:"newReviews"`
	IsOpen         bool          `json:"isOpen"`
	RecentOrders   []RecentOrder `json:"recentOrders"`
}
