// ============================================================================
// backend/internal/auth/service.go
// Authentication service: login, logout, token validation, password change
// ============================================================================

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"schoolhub/backend/internal/shared"
)

// Sentinel errors the HTTP layer maps to status codes.
var (
	ErrMissingCredentials = errors.New("identifier and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongOldPassword   = errors.New("incorrect old password")
)

// Service handles authentication against the users and sessions collections.
type Service struct {
	config      *shared.ServerConfig
	audit       shared.AuditRecorder
	usersCol    *mongo.Collection
	sessionsCol *mongo.Collection
}

// CustomClaims for JWT. SchoolID rides in the token so tenant scoping does
// not need a user lookup on every request.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	SchoolID string `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}

// NewService creates an auth Service instance.
func NewService(db *mongo.Database, config *shared.ServerConfig, audit shared.AuditRecorder) *Service {
	return &Service{
		config:      config,
		audit:       audit,
		usersCol:    db.Collection(shared.ColUsers),
		sessionsCol: db.Collection(shared.ColSessions),
	}
}

// LoginResult is returned to the HTTP layer on successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *shared.User `json:"user"`
}

// Login authenticates a user by email, staff number, or student number and
// returns a signed JWT backed by a server-side session.
func (s *Service) Login(ctx context.Context, identifier, password, ipAddress string) (*LoginResult, error) {
	if identifier == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 1. Find the user by any login identifier
	var user shared.User
	filter := bson.M{
		"$or": []bson.M{
			{"email": identifier},
			{"staff_number": identifier},
			{"student_number": identifier},
		},
	}
	err := s.usersCol.FindOne(queryCtx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	// 2. Check password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.audit.Record(ctx, shared.Actor{UserID: user.ID, Role: user.Role, SchoolID: user.SchoolID},
			shared.ActionLogin, user.ID, false, map[string]interface{}{"reason": "wrong password", "ip": ipAddress})
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	// 3. Generate the JWT
	tokenString, expiresAt, err := s.generateToken(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	// 4. Create a session row (allows server-side logout/revocation)
	session := shared.Session{
		ID:        shared.GenerateID("sess"),
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
		IPAddress: ipAddress,
	}
	if _, err := s.sessionsCol.InsertOne(queryCtx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.audit.Record(ctx, shared.Actor{UserID: user.ID, Role: user.Role, SchoolID: user.SchoolID},
		shared.ActionLogin, user.ID, true, map[string]interface{}{"ip": ipAddress})

	return &LoginResult{Token: tokenString, ExpiresAt: expiresAt, User: &user}, nil
}

// Logout removes the session for the token. Idempotent: an unknown or already
// expired token still reports success.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.sessionsCol.DeleteMany(queryCtx, bson.M{"token": token}); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// ValidateToken verifies the token signature, the server-side session, and
// the account state, returning the acting identity.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (shared.Actor, error) {
	if tokenString == "" {
		return shared.Actor{}, ErrInvalidToken
	}

	// 1. Parse and verify the signature locally
	token, claims, err := s.parseToken(tokenString)
	if err != nil || !token.Valid {
		return shared.Actor{}, ErrInvalidToken
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 2. Check the session row (revocation check)
	count, err := s.sessionsCol.CountDocuments(queryCtx, bson.M{"token": tokenString})
	if err != nil || count == 0 {
		return shared.Actor{}, ErrInvalidToken
	}

	// 3. The account must still be active
	var user shared.User
	err = s.usersCol.FindOne(queryCtx, bson.M{"_id": claims.UserID}).Decode(&user)
	if err != nil || !user.IsActive {
		return shared.Actor{}, ErrInvalidToken
	}

	// Role and school come from the user row, not the claims, so role or
	// tenant changes take effect without waiting out the token lifetime.
	return shared.Actor{UserID: user.ID, Role: user.Role, SchoolID: user.SchoolID}, nil
}

// ChangePassword verifies the old password, stores the new hash, and revokes
// every existing session for the user.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if userID == "" || oldPassword == "" || newPassword == "" {
		return ErrMissingCredentials
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// 1. Fetch the user
	var user shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return ErrUserNotFound
	}

	// 2. Verify the old password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongOldPassword
	}

	// 3. Hash and store the new password
	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.config.Security.BCryptCost)
	if err != nil {
		return fmt.Errorf("failed to process password: %w", err)
	}
	_, err = s.usersCol.UpdateOne(queryCtx, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{
			"password_hash": string(newHash),
			"updated_at":    time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// 4. Force logout everywhere
	_, _ = s.sessionsCol.DeleteMany(queryCtx, bson.M{"user_id": userID})
	return nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

// generateToken creates a signed JWT carrying the tenant claims.
func (s *Service) generateToken(user *shared.User) (string, time.Time, error) {
	expirationTime := time.Now().Add(time.Duration(s.config.Security.JWTExpirationHours) * time.Hour)

	claims := CustomClaims{
		UserID:   user.ID,
		Role:     user.Role,
		SchoolID: user.SchoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			// Unique jti so tokens differ even when issued in the same second
			ID:        shared.GenerateID("jti"),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "schoolhub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))

	return tokenString, expirationTime, err
}

// parseToken validates the JWT signature and extracts claims.
func (s *Service) parseToken(tokenString string) (*jwt.Token, *CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Security.JWTSecret), nil
	})

	return token, claims, err
}
