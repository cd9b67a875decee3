package handler

import (
	"time"

	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
)

// toUserResponse flattens the aggregate into the wire shape. The credential
// never appears here; the domain type refuses to serialise it anyway.
func toUserResponse(u *domain.User) *userResponse {
	roles := u.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}

	p := u.Profile()
	resp := &userResponse{
		ID:            u.ID(),
		Email:         u.Email(),
		Roles:         names,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Phone:         p.Phone,
		AvatarURL:     p.AvatarURL,
		DateOfBirth:   p.DateOfBirth,
		EmailVerified: u.EmailVerified(),
		Active:        u.IsActive(),
		CreatedAt:     u.CreatedAt(),
		UpdatedAt:     u.UpdatedAt(),
		CreatedBy:     u.CreatedBy(),
	}
	if last, ok := u.LastLoginAt(); ok {
		resp.LastLoginAt = &last
	}
	return resp
}

func toUserListResponse(users []*domain.User, total int64, page, limit int) userListResponse {
	out := make([]*userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return userListResponse{Users: out, Total: total, Page: page, Limit: limit}
}

func toTokenPairResponse(pair *ports.TokenPair) *tokenPairResponse {
	if pair == nil {
		return nil
	}
	return &tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	}
}

func toSessionListResponse(sessions []ports.SessionInfo) sessionListResponse {
	out := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = sessionResponse{
			ID:        s.ID,
			CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
			ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
			UserAgent: s.UserAgent,
			IPAddress: s.IPAddress,
			IsCurrent: s.IsCurrent,
		}
	}
	return sessionListResponse{Sessions: out, Total: len(out)}
}
