package services

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"net/mail"

	"golang.org/x/crypto/pbkdf2"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/types"
)

const (
	pbkdf2Iterations = 1000
	pbkdf2KeyLength  = 64
	passwordSaltSize = 16
)

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	if userRepo == nil {
		panic("userRepo cannot be nil")
	}
	return &UserService{userRepo: userRepo}
}

// Register creates a new account after an email uniqueness check.
// The password is stored as a PBKDF2-SHA512 hash with a per-user salt.
func (us *UserService) Register(ctx context.Context, input *types.InputSignup) (*types.User, error) {
	emailAddr, err := mail.ParseAddress(input.Email)
	if err != nil {
		return nil, types.ErrInvalidEmail
	}

	if _, err := us.userRepo.GetByEmail(ctx, emailAddr.Address); err == nil {
		return nil, types.ErrUserExists
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	salt := make([]byte, passwordSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	user := &types.User{
		FullName:     input.FullName,
		Email:        emailAddr.Address,
		PasswordHash: hashPassword(input.Password, salt),
		PasswordSalt: salt,
	}

	created, err := us.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, types.ErrUserExists) {
			return nil, types.ErrUserExists
		}
		global.Logger.Log("error", "failed to register user", "error", err.Error())
		return nil, err
	}
	return created, nil
}

// Authenticate verifies the credentials and returns the matching user.
// Unknown email and wrong password are both ErrNotAuthorized.
func (us *UserService) Authenticate(ctx context.Context, email, password string) (*types.User, error) {
	user, err := us.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrNotAuthorized
		}
		return nil, err
	}

	candidate := hashPassword(password, user.PasswordSalt)
	if subtle.ConstantTimeCompare(user.PasswordHash, candidate) != 1 {
		return nil, types.ErrNotAuthorized
	}
	return user, nil
}

func (us *UserService) GetByID(ctx context.Context, id int64) (*types.User, error) {
	return us.userRepo.GetByID(ctx, id)
}

// ListRecipients lists every user except the caller, for the compose picker.
func (us *UserService) ListRecipients(ctx context.Context, excludeID int64) ([]types.OutputRecipient, error) {
	return us.userRepo.ListRecipients(ctx, excludeID)
}

func hashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
}
