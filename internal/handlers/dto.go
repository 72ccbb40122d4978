package handlers

import (
	"time"

	"judolog/internal/models"
	"judolog/internal/roles"
)

// UserDTO is the profile as the client sees it: decrypted email, RFC3339 created_at.
type UserDTO struct {
	ID        int          `json:"id"`
	Email     string       `json:"email"`
	CreatedAt string       `json:"created_at"`
	FirstName *string      `json:"first_name,omitempty"`
	LastName  *string      `json:"last_name,omitempty"`
	BeltRank  *string      `json:"belt_rank,omitempty"`
	ClubID    *int         `json:"club_id,omitempty"`
	Roles     []roles.Role `json:"roles"`
}

func ToUserDTO(u models.User, rs []roles.Role) UserDTO {
	if rs == nil {
		rs = []roles.Role{}
	}
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		BeltRank:  u.BeltRank,
		ClubID:    u.ClubID,
		Roles:     rs,
	}
}
