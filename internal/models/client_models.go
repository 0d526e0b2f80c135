package models

import "time"

// Client represents a guest of the lodging business.
type Client struct {
	ID        int64      `json:"id"`
	FullName  string     `json:"full_name"`
	CPF       *string    `json:"cpf"` // national tax id, unique when present
	Phone     string     `json:"phone"`
	Email     *string    `json:"email"`
	Address   *string    `json:"address"`
	Notes     *string    `json:"notes"`
	Tags      StringList `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
