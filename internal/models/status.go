package models

import "fmt"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// validNext is the single place where legal transitions live.
// DELIVERED and CANCELLED are terminal.
var validNext = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

type TransitionError struct {
	From   OrderStatus
	To     OrderStatus
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s: %s", e.From, e.To, e.Reason)
}

func IsValidStatus(s OrderStatus) bool {
	_, ok := validNext[s]
	return ok
}

func ValidateTransition(current, next OrderStatus) error {
	if !IsValidStatus(current) {
		return &TransitionError{From: current, To: next, Reason: "unknown current status"}
	}
	if !IsValidStatus(next) {
		return &TransitionError{From: current, To: next, Reason: "unknown target status"}
	}

	allowed := validNext[current]
	if len(allowed) == 0 {
		return &TransitionError{From: current, To: next, Reason: "status is terminal"}
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return &TransitionError{From: current, To: next, Reason: "not allowed"}
}

func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}
