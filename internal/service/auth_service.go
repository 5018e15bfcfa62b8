package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/mmynk/pocketledger/internal/auth"
)

const authServiceName = "/pocketledger.v1.AuthService/"

// Auth procedures.
const (
	GetStatusProcedure   = authServiceName + "GetStatus"
	SetPasswordProcedure = authServiceName + "SetPassword"
	LoginProcedure       = authServiceName + "Login"
)

type StatusResponse struct {
	PasswordSet bool `json:"passwordSet"`
}

type SetPasswordRequest struct {
	// Current is required when a password is already set.
	Current  string `json:"current,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register mounts the service's procedures on mux. These procedures must not
// be wrapped by RequireAuth.
func (s *AuthService) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	handle(mux, GetStatusProcedure, s.GetStatus, opts...)
	handle(mux, SetPasswordProcedure, s.SetPassword, opts...)
	handle(mux, LoginProcedure, s.Login, opts...)
}

// GetStatus reports whether the app is locked by a password.
func (s *AuthService) GetStatus(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StatusResponse], error) {
	set, err := s.authenticator.IsSet(ctx)
	if err != nil {
		return nil, toConnectError("GetStatus", err)
	}
	return connect.NewResponse(&StatusResponse{PasswordSet: set}), nil
}

// SetPassword sets or changes the password and returns a fresh session.
func (s *AuthService) SetPassword(ctx context.Context, req *connect.Request[SetPasswordRequest]) (*connect.Response[SessionResponse], error) {
	if err := s.authenticator.Set(ctx, req.Msg.Current, req.Msg.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("Password change rejected")
		}
		return nil, toConnectError("SetPassword", err)
	}
	s.logger.Info("Password set")
	return s.session()
}

// Login checks the password and returns a session token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[SessionResponse], error) {
	if req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	if err := s.authenticator.Verify(ctx, req.Msg.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrPasswordNotSet) {
			s.logger.Warn("Login failed", "error", err)
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
		}
		return nil, toConnectError("Login", err)
	}

	s.logger.Info("Login successful")
	return s.session()
}

func (s *AuthService) session() (*connect.Response[SessionResponse], error) {
	token, expires, err := s.jwtManager.Generate()
	if err != nil {
		s.logger.Error("Failed to generate token", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&SessionResponse{Token: token, ExpiresAt: expires}), nil
}
