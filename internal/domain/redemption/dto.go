package redemption

import "github.com/google/uuid"

// CreateRequestBody is the body of POST /redemptions
type CreateRequestBody struct {
	MasonID         string  `json:"mason_id" validate:"required,uuid"`
	RewardID        string  `json:"reward_id" validate:"required,uuid"`
	Quantity        int     `json:"quantity" validate:"required,gt=0,lte=1000"`
	DeliveryName    *string `json:"delivery_name" validate:"omitempty,max=200"`
	DeliveryPhone   *string `json:"delivery_phone" validate:"omitempty,max=32"`
	DeliveryAddress *string `json:"delivery_address" validate:"omitempty,max=500"`
}

// ToParams converts an already-validated body
func (b *CreateRequestBody) ToParams(actor uuid.UUID) CreateParams {
	return CreateParams{
		MasonID:         uuid.MustParse(b.MasonID),
		RewardID:        uuid.MustParse(b.RewardID),
		Quantity:        b.Quantity,
		DeliveryName:    b.DeliveryName,
		DeliveryPhone:   b.DeliveryPhone,
		DeliveryAddress: b.DeliveryAddress,
		ActorID:         actor,
	}
}

// TransitionBody is the body of PATCH /redemptions/{id}
type TransitionBody struct {
	Status           string  `json:"status" validate:"required,redemption_status"`
	FulfillmentNotes *string `json:"fulfillment_notes" validate:"omitempty,max=1000"`
}
