package domain

// Identity is the verified caller of an operation. A zero UserID means an
// anonymous connection.
type Identity struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

func (i Identity) Authenticated() bool {
	return i.UserID > 0 && i.Role.Valid()
}
