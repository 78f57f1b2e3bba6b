package mason

import (
	"time"

	"github.com/google/uuid"
)

// Mason is a field incentive participant. Rows are owned by the field-force
// module and only read here.
type Mason struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Phone     string     `db:"phone" json:"phone"`
	Address   *string    `db:"address" json:"address,omitempty"`
	DealerID  *uuid.UUID `db:"dealer_id" json:"dealer_id,omitempty"`
	Role      *string    `db:"role" json:"role,omitempty"`
	Area      *string    `db:"area" json:"area,omitempty"`
	Region    *string    `db:"region" json:"region,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
