package users

import (
	"time"
)

// User is provisioned lazily on the first authenticated request; identity
// itself lives with the external OIDC provider.
type User struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ExternalID string `gorm:"type:varchar(128);not null;uniqueIndex:idx_users_external_id" json:"-"`
	Email      string `gorm:"not null;index:idx_users_email" json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
