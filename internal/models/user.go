package models

import "time"

// User is a registered account. The password hash never leaves the
// process in JSON.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	BlogCreated []string  `json:"blogCreated"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Profile is a user with blogCreated expanded to full blog records, in
// blogCreated order.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	BlogCreated []Blog    `json:"blogCreated"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RegisterRequest is the JSON body for POST /api/user/register.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the JSON body for POST /api/user/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
