package models

// Identity is what the core knows about the caller: whether a session exists and whose it is
type Identity struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Anonymous is the identity of a caller without a valid session
var Anonymous = Identity{}
