package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"readnest/internal/auth"
	apperrors "readnest/internal/errors"
	"readnest/internal/events"
	"readnest/internal/logging"
	"readnest/internal/model"
	"readnest/internal/repository"
)

// PublishTimeout bounds how long an auth request waits on the session event sink.
const PublishTimeout = 250 * time.Millisecond

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials
	// ErrUserAlreadyExists is returned when trying to register an existing user.
	ErrUserAlreadyExists = apperrors.ErrDuplicateUser
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = apperrors.ErrInvalidRefreshToken
)

// AuthResult is returned on successful register, login and refresh.
// RefreshToken is empty after registration.
type AuthResult struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	UserID       uint   `json:"id"`
	Email        string `json:"email"`
}

// RegisterInput carries the profile of a new member.
type RegisterInput struct {
	FirstName     string
	LastName      string
	Email         string
	Password      string
	Address       *string
	ContactNumber *string
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, userID uint) error
}

type authService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	issuer    auth.TokenIssuer
	hasher    auth.PasswordHasher
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time

	publishTimeout time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	issuer auth.TokenIssuer,
	hasher auth.PasswordHasher,
	publisher events.Publisher,
) AuthService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		issuer:    issuer,
		hasher:    hasher,
		publisher: publisher,
		logger:    logging.Component("auth"),
		now:       time.Now,

		publishTimeout: PublishTimeout,
	}
}

// Register creates a new member and returns an access token only; no
// refresh token is minted until the first login.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, apperrors.ErrInvalidEmail
	}

	// Check if user already exists
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		s.logger.Info().Str("email", email).Msg("registration rejected: duplicate email")
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Fatal("check user existence", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperrors.Validation("PASSWORD_TOO_LONG", err.Error())
		}
		return nil, apperrors.Fatal("hash password", err)
	}

	user := &model.User{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Email:         email,
		Address:       in.Address,
		ContactNumber: in.ContactNumber,
		Role:          model.RoleLibraryMember,
		PasswordHash:  hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, apperrors.Fatal("create user", err)
	}

	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, apperrors.Fatal("issue access token", err)
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")
	s.publish(ctx, events.NewSessionEvent(events.TypeRegistered, user.ID, ""))

	return &AuthResult{AccessToken: accessToken, UserID: user.ID, Email: user.Email}, nil
}

// Login authenticates a user and starts a new session, revoking any previous one.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Fatal("find user", err)
		}
		// Same bcrypt work as a wrong password so timing does not reveal the email.
		s.hasher.VerifyDummy(password)
		s.loginFailed(ctx, 0)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(ctx, user.ID)
		return nil, ErrInvalidCredentials
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")
	s.publish(ctx, events.NewSessionEvent(events.TypeLogin, user.ID, ""))
	return result, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair.
// The presented token is consumed before anything new is issued.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, s.rejectRefresh(ctx, 0, "empty")
	}
	now := s.now().UTC()

	stored, err := s.tokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.rejectRefresh(ctx, 0, "not_found")
		}
		return nil, apperrors.Fatal("find refresh token", err)
	}

	if !stored.Valid(now) {
		reason := "expired"
		switch {
		case stored.IsUsed:
			s.logger.Warn().Uint("user_id", stored.UserID).Uint("token_id", stored.ID).Msg("refresh token replay rejected")
			reason = "used"
		case stored.IsRevoked:
			reason = "revoked"
		}
		return nil, s.rejectRefresh(ctx, stored.UserID, reason)
	}

	consumed, err := s.tokenRepo.MarkUsed(ctx, stored.ID, now)
	if err != nil {
		return nil, apperrors.Fatal("consume refresh token", err)
	}
	if !consumed {
		s.logger.Warn().Uint("user_id", stored.UserID).Uint("token_id", stored.ID).Msg("refresh token consumed concurrently")
		return nil, s.rejectRefresh(ctx, stored.UserID, "concurrent_use")
	}

	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.rejectRefresh(ctx, stored.UserID, "user_missing")
		}
		return nil, apperrors.Fatal("find user", err)
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("session refreshed")
	s.publish(ctx, events.NewSessionEvent(events.TypeRefreshed, user.ID, ""))
	return result, nil
}

// Logout revokes every valid refresh token of the user. Logging out twice is not an error.
func (s *authService) Logout(ctx context.Context, userID uint) error {
	revoked, err := s.tokenRepo.RevokeAllValidForUser(ctx, userID, s.now().UTC())
	if err != nil {
		return apperrors.Fatal("revoke refresh tokens", err)
	}

	s.logger.Info().Uint("user_id", userID).Int64("revoked", revoked).Msg("user logged out")
	s.publish(ctx, events.NewSessionEvent(events.TypeLogout, userID, ""))
	return nil
}

// startSession issues an access token and persists a fresh refresh token,
// revoking the user's previous ones in the same transaction.
func (s *authService) startSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	accessToken, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, apperrors.Fatal("issue access token", err)
	}

	refresh, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.Fatal("issue refresh token", err)
	}

	if err := s.tokenRepo.ReplaceForUser(ctx, user.ID, refresh, s.now().UTC()); err != nil {
		return nil, apperrors.Fatal("store refresh token", err)
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		UserID:       user.ID,
		Email:        user.Email,
	}, nil
}

func (s *authService) loginFailed(ctx context.Context, userID uint) {
	s.logger.Info().Uint("user_id", userID).Msg("login rejected")
	s.publish(ctx, events.NewSessionEvent(events.TypeLoginFailed, userID, ""))
}

func (s *authService) rejectRefresh(ctx context.Context, userID uint, reason string) error {
	s.logger.Info().Uint("user_id", userID).Str("reason", reason).Msg("refresh rejected")
	s.publish(ctx, events.NewSessionEvent(events.TypeRefreshRejected, userID, reason))
	return ErrInvalidRefreshToken
}

func (s *authService) publish(ctx context.Context, ev events.SessionEvent) {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("event", string(ev.Type)).Msg("publish session event")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
