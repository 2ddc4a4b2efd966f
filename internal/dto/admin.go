package dto

// PromoteUserRequest promotes a user to professor.
type PromoteUserRequest struct {
	UserID int64 `json:"userId" validate:"required"`
}

// BlockUserResponse reports the blocked flag after a toggle.
type BlockUserResponse struct {
	ID        int64 `json:"id"`
	IsBlocked bool  `json:"isBlocked"`
}
