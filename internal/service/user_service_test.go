package service

import (
	"context"
	"testing"

	"shop_api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', code)
		}
	}
}

func newUserFixture(t *testing.T) (UserService, *fakeUserRepo, *fakePurchaseRepo) {
	t.Helper()
	users := newFakeUserRepo()
	purchases := &fakePurchaseRepo{users: map[int64]bool{}, stock: map[int64]int{}}
	return NewUserService(users, purchases, newFakeStore()), users, purchases
}

func TestUserService_Create(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	admin := "admin"

	u, err := svc.Create(context.Background(), model.CreateUserRequest{FirstName: "Ann", Email: "Ann@Example.com", Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Empty(t, u.PasswordHash)

	_, err = svc.Create(context.Background(), model.CreateUserRequest{FirstName: "Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserService_ListIncludesPurchases(t *testing.T) {
	svc, _, purchases := newUserFixture(t)
	u, err := svc.Create(context.Background(), model.CreateUserRequest{FirstName: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), model.CreateUserRequest{FirstName: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	purchases.users[u.ID] = true
	purchases.stock[5] = 3
	_, err = purchases.Buy(context.Background(), u.ID, 5)
	require.NoError(t, err)

	users, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Len(t, users[0].Purchases, 1)
	assert.Empty(t, users[1].Purchases)
}

func TestUserService_UpdateSelfOrAdmin(t *testing.T) {
	svc, _, _ := newUserFixture(t)
	ann, err := svc.Create(context.Background(), model.CreateUserRequest{FirstName: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	bob, err := svc.Create(context.Background(), model.CreateUserRequest{FirstName: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	name := "Annie"

	updated, err := svc.Update(context.Background(), ann.ID, model.RoleUser, ann.ID, model.UpdateUserRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.FirstName)

	_, err = svc.Update(context.Background(), bob.ID, model.RoleUser, ann.ID, model.UpdateUserRequest{FirstName: &name})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Update(context.Background(), bob.ID, model.RoleAdmin, ann.ID, model.UpdateUserRequest{FirstName: &name})
	assert.NoError(t, err)

	taken := "bob@example.com"
	_, err = svc.Update(context.Background(), ann.ID, model.RoleUser, ann.ID, model.UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserService_GetAndDeleteMissing(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), 404), ErrNotFound)
}

func TestUserService_ReturnsPictureURL(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	u, err := svc.Create(context.Background(), model.CreateUserRequest{FirstName: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	_, err = users.UpdateProfilePicture(context.Background(), u.ID, "profiles/1/a.png")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ProfilePicture)
	assert.Equal(t, "/uploads/profiles/1/a.png", *got.ProfilePicture)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/uploads/profiles/1/a.png", *list[0].ProfilePicture)

	name := "Annie"
	updated, err := svc.Update(context.Background(), u.ID, model.RoleUser, u.ID, model.UpdateUserRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/profiles/1/a.png", *updated.ProfilePicture)

	stored, _ := users.FindByID(context.Background(), u.ID)
	assert.Equal(t, "profiles/1/a.png", *stored.ProfilePicture)
}
