package user

import (
	"context"

	usermodel "ChatGate/module/user/model"
	"ChatGate/service/chat"
	"ChatGate/tools/errs"
	"ChatGate/tools/security"

	"github.com/google/uuid"
)

// UserGetter is the slice of the store the resolver needs.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*usermodel.User, error)
}

// Resolver resolves a bearer token to a chat identity: verify the JWT, parse
// the subject as a user id, confirm the user row still exists and is active.
type Resolver struct {
	Opts  security.Options
	Store UserGetter
}

func (r *Resolver) Resolve(ctx context.Context, credential string) (chat.Identity, error) {
	if credential == "" {
		return chat.Identity{}, errs.ErrTokenInvalid
	}
	sub, err := security.Verify(r.Opts, credential)
	if err != nil {
		return chat.Identity{}, errs.ErrTokenInvalid.WithDetail(err.Error())
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return chat.Identity{}, errs.ErrTokenInvalid.WithDetail("malformed subject")
	}
	u, err := r.Store.GetByID(ctx, id)
	if err != nil {
		return chat.Identity{}, errs.ErrTokenInvalid.WithDetail("unknown user")
	}
	if !u.IsActive {
		return chat.Identity{}, errs.ErrTokenInvalid.WithDetail("user disabled")
	}
	return chat.Identity{ID: u.ID, Username: u.Username}, nil
}
