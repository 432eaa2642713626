package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/chantierflow/chantierflow/internal/auth/domain"
	"github.com/chantierflow/chantierflow/internal/auth/password"
	"github.com/chantierflow/chantierflow/internal/tenantctx"
	"github.com/chantierflow/chantierflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour

	minPasswordLength = 8
)

type Params struct {
	fx.In

	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
}

type Service struct {
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	sessionRepo domain.SessionRepository
}

func New(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("auth.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = tenantctx.RoleDemandeur
	}
	if !validRole(role) {
		return nil, domain.ErrInvalidRole
	}
	// Only the platform super admin can mint another super admin or
	// place a user outside their own tenant.
	companyID := req.CompanyID
	if actor.Role != tenantctx.RoleSuperAdmin {
		if role == tenantctx.RoleSuperAdmin {
			return nil, domain.ErrForbidden
		}
		own := actor.CompanyID
		companyID = &own
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if err != domain.ErrUserNotFound {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	lang := strings.TrimSpace(req.PreferredLanguage)
	if lang == "" {
		lang = "fr"
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:                s.genID.Generate(),
		CompanyID:         companyID,
		Email:             email,
		PasswordHash:      hashed,
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Phone:             strings.TrimSpace(req.Phone),
		Role:              role,
		PreferredLanguage: lang,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// Covers the lookup/insert race on the unique email index.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil || strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserDisabled
	}
	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	user.LastLoginAt = &now
	if err := s.repo.Update(ctx, user); err != nil {
		s.log.Warn("failed to record last login", zap.Error(err))
	}

	return &domain.LoginResult{
		Token:   rawToken,
		User:    user,
		Session: session,
	}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.sessionRepo.FindSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return err
	}
	return s.sessionRepo.RevokeSession(ctx, session.ID)
}

func (s *Service) Authenticate(ctx context.Context, token string) (*domain.AuthResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.FindSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserDisabled
	}

	if err := s.sessionRepo.TouchSession(ctx, session.ID); err != nil {
		s.log.Warn("failed to touch session", zap.Error(err))
	}

	return &domain.AuthResult{User: user, Session: session}, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID snowflake.ID, current, next string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(current, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(next)) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	hashed, err := password.Hash(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	// Other devices lose access once the password rotates.
	return s.sessionRepo.RevokeUserSessions(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != user.ID && !actor.CanAccess(companyIDOf(user)) {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx, actor.Scope())
}

func (s *Service) UpdateUser(ctx context.Context, req domain.UpdateUserRequest) (*domain.User, error) {
	actor, ok := tenantctx.ActorFromContext(ctx)
	if !ok || !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(companyIDOf(user)) {
		return nil, domain.ErrUserNotFound
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Role != nil {
		role := strings.TrimSpace(*req.Role)
		if !validRole(role) {
			return nil, domain.ErrInvalidRole
		}
		if role == tenantctx.RoleSuperAdmin && actor.Role != tenantctx.RoleSuperAdmin {
			return nil, domain.ErrForbidden
		}
		user.Role = role
	}
	if req.PreferredLanguage != nil {
		user.PreferredLanguage = strings.TrimSpace(*req.PreferredLanguage)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		if !user.IsActive {
			if err := s.sessionRepo.RevokeUserSessions(ctx, user.ID); err != nil {
				return nil, err
			}
		}
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func companyIDOf(user *domain.User) snowflake.ID {
	if user.CompanyID == nil {
		return 0
	}
	return *user.CompanyID
}

func validRole(role string) bool {
	switch role {
	case tenantctx.RoleSuperAdmin, tenantctx.RoleAdmin, tenantctx.RoleValideur, tenantctx.RoleDemandeur:
		return true
	default:
		return false
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
