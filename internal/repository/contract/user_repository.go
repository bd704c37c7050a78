package contract

import (
	"context"

	"github.com/google/uuid"

	"wise-student-be/internal/entity"
	"wise-student-be/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Link writes one parent->child edge. Both directions of the
	// relationship derive from the same row, so a partial link (one side
	// updated, not the other) is unrepresentable.
	Link(ctx context.Context, parentID, childID uuid.UUID) error
	IsLinked(ctx context.Context, parentID, childID uuid.UUID) (bool, error)
	ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
	ParentsOf(ctx context.Context, childID uuid.UUID) ([]uuid.UUID, error)
}
