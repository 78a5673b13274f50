package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"dropngo/internal/auth"
	"dropngo/internal/domain"
	"dropngo/internal/logger"
	"dropngo/internal/repository"
)

const minPasswordLength = 6

// Home routes per role.
const (
	HomeRouteAdmin    = "/(admin)"
	HomeRoutePorter   = "/(porter)"
	HomeRouteCustomer = "/(user)"
)

// HomeRoute returns the landing route for a role.
func HomeRoute(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return HomeRouteAdmin
	case domain.RolePorter:
		return HomeRoutePorter
	default:
		return HomeRouteCustomer
	}
}

// demoAccount is a fixed identity served without a database lookup.
type demoAccount struct {
	id       string
	fullName string
	role     domain.Role
}

var demoAccounts = map[string]demoAccount{
	"admin@dropngo.com":  {id: "00000000-0000-0000-0000-00000000000a", fullName: "Demo Admin", role: domain.RoleAdmin},
	"porter@dropngo.com": {id: "00000000-0000-0000-0000-00000000000b", fullName: "Demo Porter", role: domain.RolePorter},
	"user@dropngo.com":   {id: "00000000-0000-0000-0000-00000000000c", fullName: "Demo User", role: domain.RoleCustomer},
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID, email string, role domain.Role) (string, time.Time, error)
}

// AuthConfig configures AuthService.
type AuthConfig struct {
	DemoAccounts          bool
	DemoPassword          string
	DefaultCommissionRate float64
}

// AuthService handles registration and login.
type AuthService struct {
	txManager repository.TxManager
	userRepo  repository.UserRepository
	tokens    TokenIssuer
	notifier  Notifier
	cfg       AuthConfig
	log       logger.ILogger
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	txManager repository.TxManager,
	userRepo repository.UserRepository,
	tokens TokenIssuer,
	notifier Notifier,
	cfg AuthConfig,
	log logger.ILogger,
) *AuthService {
	return &AuthService{
		txManager: txManager,
		userRepo:  userRepo,
		tokens:    tokens,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// RegisterRequest contains the customer registration fields.
type RegisterRequest struct {
	FullName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// RegisterPorterRequest adds porter onboarding fields and document URLs.
type RegisterPorterRequest struct {
	RegisterRequest
	LicenseNumber string
	VehicleNumber string
	VehicleType   string
	Documents     map[domain.DocumentType]string
}

// Session is the result of a successful login or registration.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
	HomeRoute string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(req *RegisterRequest) error {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = normalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	switch {
	case req.FullName == "":
		return fmt.Errorf("%w: full name", ErrMissingField)
	case req.Email == "":
		return fmt.Errorf("%w: email", ErrMissingField)
	case req.Phone == "":
		return fmt.Errorf("%w: phone", ErrMissingField)
	case req.Password == "":
		return fmt.Errorf("%w: password", ErrMissingField)
	case req.ConfirmPassword == "":
		return fmt.Errorf("%w: password confirmation", ErrMissingField)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(req.Password) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

func (s *AuthService) newUser(req RegisterRequest, role domain.Role, status domain.VerificationStatus) (*domain.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	return &domain.User{
		ID:                 uuid.New().String(),
		Email:              req.Email,
		Phone:              req.Phone,
		FullName:           req.FullName,
		Role:               role,
		PasswordHash:       hash,
		VerificationStatus: status,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if err := validateRegistration(&req); err != nil {
		return nil, err
	}

	user, err := s.newUser(req, domain.RoleCustomer, domain.VerificationVerified)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("customer registered", logger.String("user_id", user.ID))
	return s.session(user)
}

// RegisterPorter creates a porter account pending admin review, with an
// unavailable profile and the uploaded onboarding documents.
func (s *AuthService) RegisterPorter(ctx context.Context, req RegisterPorterRequest) (*Session, error) {
	if err := validateRegistration(&req.RegisterRequest); err != nil {
		return nil, err
	}

	req.LicenseNumber = strings.TrimSpace(req.LicenseNumber)
	req.VehicleNumber = strings.TrimSpace(req.VehicleNumber)
	req.VehicleType = strings.TrimSpace(req.VehicleType)
	switch {
	case req.LicenseNumber == "":
		return nil, fmt.Errorf("%w: license number", ErrMissingField)
	case req.VehicleNumber == "":
		return nil, fmt.Errorf("%w: vehicle number", ErrMissingField)
	case req.VehicleType == "":
		return nil, fmt.Errorf("%w: vehicle type", ErrMissingField)
	}
	for _, doc := range domain.RequiredPorterDocuments {
		if strings.TrimSpace(req.Documents[doc]) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingDocument, doc)
		}
	}

	user, err := s.newUser(req.RegisterRequest, domain.RolePorter, domain.VerificationPending)
	if err != nil {
		return nil, err
	}
	now := user.CreatedAt

	profile := &domain.PorterProfile{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		LicenseNumber:  req.LicenseNumber,
		VehicleType:    req.VehicleType,
		VehicleNumber:  req.VehicleNumber,
		IsAvailable:    false,
		CommissionRate: s.cfg.DefaultCommissionRate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.txManager.WithTx(ctx, func(store repository.Store) error {
		if err := store.Users().Create(ctx, user); err != nil {
			return err
		}
		if err := store.Porters().CreateProfile(ctx, profile); err != nil {
			return err
		}
		for docType, url := range req.Documents {
			url = strings.TrimSpace(url)
			if url == "" {
				continue
			}
			doc := &domain.PorterDocument{
				ID:        uuid.New().String(),
				UserID:    user.ID,
				Type:      docType,
				URL:       url,
				CreatedAt: now,
			}
			if err := store.Porters().AddDocument(ctx, doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("register porter: %w", err)
	}

	s.log.Info("porter registered", logger.String("user_id", user.ID))
	s.notifier.NotifyPorterApplied(ctx, user)
	return s.session(user)
}

// Login authenticates by email and password. When demo accounts are enabled
// the demo credentials sign in without a database lookup.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if user, ok := s.demoUser(email, password); ok {
		s.log.Debug("demo login", logger.String("role", string(user.Role)))
		return s.session(user)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.session(user)
}

func (s *AuthService) demoUser(email, password string) (*domain.User, bool) {
	if !s.cfg.DemoAccounts || s.cfg.DemoPassword == "" {
		return nil, false
	}
	acct, ok := demoAccounts[email]
	if !ok || password != s.cfg.DemoPassword {
		return nil, false
	}
	return &domain.User{
		ID:                 acct.id,
		Email:              email,
		FullName:           acct.fullName,
		Role:               acct.role,
		VerificationStatus: domain.VerificationVerified,
		IsActive:           true,
	}, true
}

// EnsureDemoAccounts creates the demo users and the demo porter profile so
// that bookings made by demo sessions satisfy foreign keys. No-op when demo
// accounts are disabled.
func (s *AuthService) EnsureDemoAccounts(ctx context.Context) error {
	if !s.cfg.DemoAccounts {
		return nil
	}

	for email, acct := range demoAccounts {
		if _, err := s.userRepo.GetByID(ctx, acct.id); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("check demo account %s: %w", email, err)
		}

		hash, err := auth.HashPassword(s.cfg.DemoPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		now := s.now()
		user := &domain.User{
			ID:                 acct.id,
			Email:              email,
			Phone:              "+10000000000",
			FullName:           acct.fullName,
			Role:               acct.role,
			PasswordHash:       hash,
			VerificationStatus: domain.VerificationVerified,
			IsActive:           true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		err = s.txManager.WithTx(ctx, func(store repository.Store) error {
			if err := store.Users().Create(ctx, user); err != nil {
				return err
			}
			if acct.role != domain.RolePorter {
				return nil
			}
			return store.Porters().CreateProfile(ctx, &domain.PorterProfile{
				ID:             uuid.New().String(),
				UserID:         user.ID,
				LicenseNumber:  "DEMO-LICENSE",
				VehicleType:    "van",
				VehicleNumber:  "DEMO-0001",
				IsAvailable:    true,
				CommissionRate: s.cfg.DefaultCommissionRate,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
		})
		if err != nil && !errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("create demo account %s: %w", email, err)
		}
		s.log.Info("demo account ready", logger.String("email", email))
	}
	return nil
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	token, expires, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: expires,
		User:      user,
		HomeRoute: HomeRoute(user.Role),
	}, nil
}
