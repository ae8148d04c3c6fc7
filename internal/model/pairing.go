package model

import "time"

// LinkCode is the short human-typeable code the host display shows.
// At most one is live globally; TTL is the remaining store expiry.
type LinkCode struct {
	Value string
	TTL   time.Duration
}

// AuthorizationRecord is the durable proof that a link code was
// claimed. It is content-addressed by the claimed code value and
// destroyed only by TTL expiry.
type AuthorizationRecord struct {
	Token      string `json:"token"`
	DeviceName string `json:"deviceName"`
}

// Credential is the (code, token) pair a linked browser carries.
// It is valid iff an AuthorizationRecord exists for Code with a
// matching Token.
type Credential struct {
	Code       string `json:"code"`
	Token      string `json:"token"`
	DeviceName string `json:"deviceName"`
}
