package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mentorhub/config"
	"mentorhub/entity"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/mailer"
	"mentorhub/repository"
)

// dummyPasswordHash is compared against when the e-mail is unknown so a
// login attempt costs the same whether or not the account exists.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("mentorhub-timing-pad"), bcrypt.DefaultCost)

// AuthService implements registration, e-mail verification and the
// password reset flow on top of the OTP service.
type AuthService interface {
	Register(req *entity.RegisterRequest, ipAddress, userAgent string) (*entity.RegisterResponse, error)
	VerifyEmail(req *entity.VerifyEmailRequest) (*entity.AuthResponse, error)
	ResendCode(req *entity.ResendCodeRequest, ipAddress, userAgent string) (*entity.MessageResponse, error)
	Login(req *entity.LoginRequest) (*entity.AuthResponse, error)
	ForgotPassword(req *entity.ForgotPasswordRequest, ipAddress, userAgent string) (*entity.MessageResponse, error)
	ResetPassword(req *entity.ResetPasswordRequest) (*entity.MessageResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	otpService OTPService
	jwtService JWTService
	mailer     mailer.Mailer
	config     *config.Config
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	otpService OTPService,
	jwtService JWTService,
	mailer mailer.Mailer,
	cfg *config.Config,
	log *logger.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		otpService: otpService,
		jwtService: jwtService,
		mailer:     mailer,
		config:     cfg,
		logger:     log,
	}
}

// Register creates (or refreshes an unverified) account and sends a
// verification code. The account stays unverified until the code is
// confirmed.
func (s *authService) Register(req *entity.RegisterRequest, ipAddress, userAgent string) (*entity.RegisterResponse, error) {
	email := entity.NormalizeIdentity(req.Email)

	role := entity.UserRole(req.Role)
	if req.Role == "" {
		role = entity.UserRoleStudent
	}
	if !role.Valid() || role == entity.UserRoleAdmin {
		return nil, fmt.Errorf("invalid role: %s", req.Role)
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.EmailVerified {
		return nil, ErrEmailAlreadyRegistered
	}

	decision, err := s.otpService.CanIssue(email, entity.OTPPurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &RateLimitError{RetryAfterSeconds: decision.RetryAfterSeconds}
	}

	passwordHash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := existing
	if user == nil {
		user, err = s.userRepo.Create(&entity.User{
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     req.FullName,
			Role:         role,
			IsActive:     true,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Infow("User registered", "user_id", user.ID, "role", user.Role)
	} else {
		// Re-registering an unverified address replaces its details so
		// the mailbox owner is never locked out by a stale signup.
		user.FullName = req.FullName
		user.PasswordHash = passwordHash
		user.Role = role
		user, err = s.userRepo.Update(user)
		if err != nil {
			return nil, err
		}
		s.logger.Infow("Unverified user re-registered", "user_id", user.ID)
	}

	issued, err := s.otpService.Issue(IssueRequest{
		Identity:  email,
		Purpose:   entity.OTPPurposeEmailVerification,
		UserID:    &user.ID,
		IPAddress: stringPtrOrNil(ipAddress),
		UserAgent: stringPtrOrNil(userAgent),
	})
	if err != nil {
		return nil, err
	}

	subject, body := verificationMail(user.FullName, issued.Code, s.config.OTP.ExpirationTime)
	s.dispatchMail(email, subject, body)

	return &entity.RegisterResponse{
		Message:   "Verification code sent, check your inbox",
		Email:     email,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// VerifyEmail confirms a pending verification code, marks the account
// verified and signs the caller in.
func (s *authService) VerifyEmail(req *entity.VerifyEmailRequest) (*entity.AuthResponse, error) {
	email := entity.NormalizeIdentity(req.Email)

	result, err := s.otpService.Verify(email, entity.OTPPurposeEmailVerification, req.Code)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &VerificationError{Reason: result.Reason, AttemptsRemaining: result.AttemptsRemaining}
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if !user.EmailVerified {
		if err := s.userRepo.MarkEmailVerified(user.ID); err != nil {
			return nil, err
		}
		user.EmailVerified = true
		s.logger.Infow("E-mail verified", "user_id", user.ID)
	}

	auth, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	auth.Message = "E-mail verified successfully"
	return auth, nil
}

// ResendCode issues a fresh verification code for an unverified
// account. The response never reveals whether the address is known or
// already verified.
func (s *authService) ResendCode(req *entity.ResendCodeRequest, ipAddress, userAgent string) (*entity.MessageResponse, error) {
	email := entity.NormalizeIdentity(req.Email)

	generic := &entity.MessageResponse{
		Message: "If an unverified account exists for that address, a new code has been sent",
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.EmailVerified || !user.IsActive {
		return generic, nil
	}

	decision, err := s.otpService.CanIssue(email, entity.OTPPurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		s.logger.Warnw("Resend rate limited",
			"user_id", user.ID,
			"retry_after_seconds", decision.RetryAfterSeconds,
		)
		return generic, nil
	}

	issued, err := s.otpService.Issue(IssueRequest{
		Identity:  email,
		Purpose:   entity.OTPPurposeEmailVerification,
		UserID:    &user.ID,
		IPAddress: stringPtrOrNil(ipAddress),
		UserAgent: stringPtrOrNil(userAgent),
	})
	if err != nil {
		return nil, err
	}

	subject, body := verificationMail(user.FullName, issued.Code, s.config.OTP.ExpirationTime)
	s.dispatchMail(email, subject, body)

	return generic, nil
}

// Login checks the credentials and returns a signed token. The account
// must be verified and active.
func (s *authService) Login(req *entity.LoginRequest) (*entity.AuthResponse, error) {
	email := entity.NormalizeIdentity(req.Email)

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a comparison anyway so unknown addresses are not
		// distinguishable by response time.
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(req.Password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		// last_login is advisory, a failed stamp must not block login.
		s.logger.Errorw("Failed to update last login", "user_id", user.ID, "error", err)
	} else {
		now := time.Now()
		user.LastLoginAt = &now
	}

	auth, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	auth.Message = "Login successful"

	s.logger.Infow("User logged in", "user_id", user.ID)
	return auth, nil
}

// ForgotPassword starts a password reset. The response is identical
// whether or not the address has an account.
func (s *authService) ForgotPassword(req *entity.ForgotPasswordRequest, ipAddress, userAgent string) (*entity.MessageResponse, error) {
	email := entity.NormalizeIdentity(req.Email)

	generic := &entity.MessageResponse{
		Message: "If an account exists for that address, a reset code has been sent",
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return generic, nil
	}

	decision, err := s.otpService.CanIssue(email, entity.OTPPurposePasswordReset)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		// Still generic: a 429 here would confirm the account exists.
		s.logger.Warnw("Password reset rate limited",
			"user_id", user.ID,
			"retry_after_seconds", decision.RetryAfterSeconds,
		)
		return generic, nil
	}

	issued, err := s.otpService.Issue(IssueRequest{
		Identity:  email,
		Purpose:   entity.OTPPurposePasswordReset,
		UserID:    &user.ID,
		IPAddress: stringPtrOrNil(ipAddress),
		UserAgent: stringPtrOrNil(userAgent),
	})
	if err != nil {
		return nil, err
	}

	subject, body := passwordResetMail(user.FullName, issued.Code, s.config.OTP.ExpirationTime)
	s.dispatchMail(email, subject, body)

	return generic, nil
}

// ResetPassword confirms a reset code and replaces the password.
func (s *authService) ResetPassword(req *entity.ResetPasswordRequest) (*entity.MessageResponse, error) {
	email := entity.NormalizeIdentity(req.Email)

	result, err := s.otpService.Verify(email, entity.OTPPurposePasswordReset, req.Code)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, &VerificationError{Reason: result.Reason, AttemptsRemaining: result.AttemptsRemaining}
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	passwordHash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdatePassword(user.ID, passwordHash); err != nil {
		return nil, err
	}

	s.logger.Infow("Password reset", "user_id", user.ID)
	return &entity.MessageResponse{Message: "Password has been reset, you can now log in"}, nil
}

func (s *authService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// dispatchMail sends in the background. Delivery failures are logged
// under a delivery id and never fail the request that queued them.
func (s *authService) dispatchMail(to, subject, body string) {
	deliveryID := uuid.NewString()
	s.logger.Infow("Dispatching mail", "delivery_id", deliveryID, "to", to, "subject", subject)

	go func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			s.logger.Errorw("Mail delivery failed", "delivery_id", deliveryID, "to", to, "error", err)
			return
		}
		s.logger.Debugw("Mail delivered", "delivery_id", deliveryID)
	}()
}

func verificationMail(name, code string, ttl time.Duration) (subject, body string) {
	subject = "Verify your MentorHub e-mail"
	body = fmt.Sprintf(
		"Hi %s,\n\nYour MentorHub verification code is: %s\n\nThe code expires in %d minutes. If you did not sign up, you can ignore this message.\n",
		name, code, int(ttl.Minutes()),
	)
	return subject, body
}

func passwordResetMail(name, code string, ttl time.Duration) (subject, body string) {
	subject = "Your MentorHub password reset code"
	body = fmt.Sprintf(
		"Hi %s,\n\nYour password reset code is: %s\n\nThe code expires in %d minutes. If you did not request a reset, you can ignore this message.\n",
		name, code, int(ttl.Minutes()),
	)
	return subject, body
}

func stringPtrOrNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
