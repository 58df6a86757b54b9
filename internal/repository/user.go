package repository

import (
	"context"

	"github.com/jaekwang-park/homework-api/internal/model"
)

type UserRepository interface {
	GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error)
	GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}
