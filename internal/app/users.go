package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"unistay/internal/domain"
)

// UserService owns registration, login checks and the admin user actions.
type UserService struct {
	users    domain.UserRepository
	bookings domain.BookingRepository
}

func NewUserService(u domain.UserRepository, b domain.BookingRepository) *UserService {
	return &UserService{users: u, bookings: b}
}

type RegisterInput struct {
	StudentNumber string
	FullName      string
	Email         string
	IDNumber      string
	PhoneNumber   string
	Password      string
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	if err := s.users.FindUserConflict(ctx, in.Email, in.StudentNumber, in.IDNumber); err != nil {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		StudentNumber: in.StudentNumber,
		FullName:      in.FullName,
		Email:         in.Email,
		PasswordHash:  string(hash),
		IDNumber:      in.IDNumber,
		PhoneNumber:   in.PhoneNumber,
		Role:          domain.RoleUser,
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		return domain.User{}, err
	}
	log.Info().Int64("user_id", u.ID).Msg("user registered")
	return u, nil
}

// Authenticate returns the user for valid credentials. Failures are
// deliberately indistinguishable: wrong email and wrong password both
// yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (domain.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *UserService) SetRole(ctx context.Context, actorID, targetID int64, role string) error {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.ErrInvalidTransfer
	}
	if actorID == targetID {
		return domain.ErrSelfRoleChange
	}
	return s.users.UpdateUserRole(ctx, targetID, role)
}

func (s *UserService) Delete(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return domain.ErrSelfRoleChange
	}
	n, err := s.bookings.CountBookingsForUser(ctx, targetID)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrHasBookings
	}
	return s.users.DeleteUser(ctx, targetID)
}

// BootstrapAdmin makes sure the env-configured admin account exists. This
// is data seeding, not schema work; the schema is cmd/migrate's business.
func (s *UserService) BootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := domain.User{
		StudentNumber: "00000000",
		FullName:      "Administrator",
		Email:         email,
		PasswordHash:  string(hash),
		IDNumber:      "0000000000000",
		PhoneNumber:   "0000000000",
		Role:          domain.RoleAdmin,
	}
	if err := s.users.CreateUser(ctx, &admin); err != nil {
		return err
	}
	log.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}
