package models

// User is a row of the users table. PasswordHash is never serialized.
type User struct {
	ID           int64  `json:"-"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
	Telephone    string `json:"telephone"`
	Admin        bool   `json:"admin"`
}

// Credentials is what a login check needs from the store.
type Credentials struct {
	Username     string
	PasswordHash string
}
