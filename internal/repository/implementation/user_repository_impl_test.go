package implementation

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"wise-student-be/internal/entity"
	"wise-student-be/internal/repository/contract"
	"wise-student-be/internal/repository/specification"
)

func seedUser(t *testing.T, repo contract.UserRepository, email string, role entity.UserRole) *entity.User {
	t.Helper()
	hash := "not-a-real-hash"
	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: &hash,
		FullName:     "Someone",
		Role:         role,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestUserFindByEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	seedUser(t, repo, "asha@example.com", entity.UserRoleParent)

	got, err := repo.FindByEmail(ctx, "asha@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got == nil || got.Role != entity.UserRoleParent {
		t.Errorf("got %+v, want parent account", got)
	}

	missing, err := repo.FindByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("FindByEmail missing: %v", err)
	}
	if missing != nil {
		t.Error("unknown email should resolve to nil, not error")
	}
}

func TestUserCreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	seedUser(t, repo, "asha@example.com", entity.UserRoleParent)
	dup := &entity.User{Id: uuid.New(), Email: "asha@example.com", FullName: "Imposter", Role: entity.UserRoleStudent}
	if err := repo.Create(context.Background(), dup); err == nil {
		t.Fatal("duplicate email insert must fail")
	}
}

func TestLinkEdgesStayBidirectional(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	parent := seedUser(t, repo, "parent@example.com", entity.UserRoleParent)
	childA := seedUser(t, repo, "a@example.com", entity.UserRoleStudent)
	childB := seedUser(t, repo, "b@example.com", entity.UserRoleStudent)

	if err := repo.Link(ctx, parent.Id, childA.Id); err != nil {
		t.Fatalf("link a: %v", err)
	}
	if err := repo.Link(ctx, parent.Id, childB.Id); err != nil {
		t.Fatalf("link b: %v", err)
	}

	linked, err := repo.IsLinked(ctx, parent.Id, childA.Id)
	if err != nil || !linked {
		t.Errorf("IsLinked = %v, %v, want true", linked, err)
	}
	linked, err = repo.IsLinked(ctx, childA.Id, parent.Id)
	if err != nil || linked {
		t.Errorf("reversed IsLinked = %v, %v; the edge is directed", linked, err)
	}

	children, err := repo.ChildrenOf(ctx, parent.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(children))
	}

	parents, err := repo.ParentsOf(ctx, childA.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(parents) != 1 || parents[0] != parent.Id {
		t.Errorf("parents = %v, want [%s]", parents, parent.Id)
	}

	// Both directions derive from the same row, so a hydrated read sees
	// the link from either side.
	gotParent, err := repo.FindOne(ctx, specification.ByID{ID: parent.Id})
	if err != nil {
		t.Fatal(err)
	}
	if !gotParent.HasChild(childA.Id) || !gotParent.HasChild(childB.Id) {
		t.Errorf("parent.Children = %v, missing linked children", gotParent.Children)
	}
	gotChild, err := repo.FindOne(ctx, specification.ByID{ID: childA.Id})
	if err != nil {
		t.Fatal(err)
	}
	if !gotChild.HasParent(parent.Id) {
		t.Errorf("child.Parents = %v, missing parent", gotChild.Parents)
	}
}

func TestLinkRejectsDuplicateEdge(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	parent := seedUser(t, repo, "parent@example.com", entity.UserRoleParent)
	child := seedUser(t, repo, "child@example.com", entity.UserRoleStudent)

	if err := repo.Link(ctx, parent.Id, child.Id); err != nil {
		t.Fatal(err)
	}
	if err := repo.Link(ctx, parent.Id, child.Id); err == nil {
		t.Fatal("duplicate link insert must fail")
	}
}
