package authorpayload

import (
	"github.com/SergeyParamoshkin/blogapi/internal/model"
)

// AuthorPayload is the nested author summary embedded in post payloads.
// It carries only public profile fields, never tokens.
type AuthorPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

func New(user *model.User) *AuthorPayload {
	if user == nil {
		return nil
	}

	return &AuthorPayload{
		ID:       user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
		Bio:      user.Bio,
	}
}
