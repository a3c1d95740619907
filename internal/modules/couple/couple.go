package couple

import (
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/evendi-backend/internal/platform/caldate"
)

// Couple is the planning profile of a marrying couple.
type Couple struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	DisplayName string        `json:"display_name" db:"display_name"`
	WeddingDate *caldate.Date `json:"wedding_date" db:"wedding_date"` // nil until the couple picks a date
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}
