package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shop_api/internal/model"
	"shop_api/internal/repository"
	"shop_api/internal/storage"
	"shop_api/internal/utils"
)

// UserService is the account management surface used by admins and by
// users editing their own profile
type UserService interface {
	Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, actorID int64, actor model.Authorizer, id int64, req model.UpdateUserRequest) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	users     repository.UserRepository
	purchases repository.PurchaseRepository
	store     storage.FileStore
}

func NewUserService(users repository.UserRepository, purchases repository.PurchaseRepository, store storage.FileStore) UserService {
	return &userService{users: users, purchases: purchases, store: store}
}

// withPictureURL replaces the stored picture key with its public URL.
func withPictureURL(store storage.FileStore, u *model.User) *model.User {
	if u == nil || u.ProfilePicture == nil || *u.ProfilePicture == "" {
		return u
	}
	url := store.URL(*u.ProfilePicture)
	u.ProfilePicture = &url
	return u
}

// Create adds an account on behalf of an admin. Without a password the
// account cannot sign in until it goes through the reset flow.
func (s *userService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	role := model.RoleUser
	if req.Role != nil {
		r, err := model.ParseRole(*req.Role)
		if err != nil {
			return nil, newError(ErrInvalidInput, err.Error())
		}
		role = r
	}

	var hash string
	if req.Password != "" {
		h, err := utils.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = h
	}

	user := &model.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        normaliseEmail(req.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return withPictureURL(s.store, user), nil
}

// List returns every user with the products they bought.
func (s *userService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	purchases, err := s.purchases.FindAllWithProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Purchases = purchases[users[i].ID]
		withPictureURL(s.store, &users[i])
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return withPictureURL(s.store, user), nil
}

// Update changes profile fields. Users may only edit themselves unless the
// actor can manage users.
func (s *userService) Update(ctx context.Context, actorID int64, actor model.Authorizer, id int64, req model.UpdateUserRequest) (*model.User, error) {
	if actorID != id && (actor == nil || !actor.Can(model.CapManageUsers)) {
		return nil, ErrNotAllowed
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		user.Email = normaliseEmail(*req.Email)
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return withPictureURL(s.store, user), nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
