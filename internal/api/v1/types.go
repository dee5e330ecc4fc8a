package apiv1

import (
	"time"

	"github.com/ManuelReschke/FoodFox/internal/pkg/validation"
)

// Pong is the ping response
type Pong struct {
	Ping string `json:"ping"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	ProductID uint   `json:"product_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
	Shortfall int    `json:"shortfall,omitempty"`
}

type AddItemRequest struct {
	ProductID    uint   `json:"product_id" validate:"required"`
	Quantity     int    `json:"quantity" validate:"required"`
	QuantityUnit string `json:"quantity_unit" validate:"required"`
}

type UpdateItemRequest struct {
	Quantity     int    `json:"quantity" validate:"required"`
	QuantityUnit string `json:"quantity_unit"`
}

type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
	ContactEmail    string `json:"contact_email"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type SubscribeRequest struct {
	PlanID uint `json:"plan_id" validate:"required"`
}

type PauseRequest struct {
	PauseEnd time.Time `json:"pause_end" validate:"required"`
}

var validate = validation.New()
