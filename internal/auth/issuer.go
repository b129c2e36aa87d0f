// Package auth issues signed session tokens and telehealth room credentials.
// The data layer only issues tokens; Parse exists for operators and tests.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
	KindRoom    = "room"
)

// Config token signing settings.
type Config struct {
	SigningKey string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	RoomTTL    time.Duration
	Now        func() time.Time
}

// Claims carried by every token. Room credentials also name the appointment
// and its video room.
type Claims struct {
	jwt.RegisteredClaims
	Kind          string `json:"kind"`
	AppointmentID string `json:"appointment_id,omitempty"`
	RoomID        string `json:"room_id,omitempty"`
}

// TokenPair access and refresh tokens for one login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Issuer signs HS256 tokens.
type Issuer struct {
	cfg Config
	key []byte
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return nil, errors.New("signing key is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{cfg: cfg, key: []byte(cfg.SigningKey)}, nil
}

// IssuePair signs a fresh access/refresh pair for userID.
func (i *Issuer) IssuePair(userID string) (*TokenPair, error) {
	access, err := i.sign(userID, KindAccess, i.cfg.AccessTTL, "", "")
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(userID, KindRefresh, i.cfg.RefreshTTL, "", "")
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RoomCredential grants userID entry to the video room of one appointment.
func (i *Issuer) RoomCredential(userID, appointmentID, roomID string) (string, error) {
	return i.sign(userID, KindRoom, i.cfg.RoomTTL, appointmentID, roomID)
}

func (i *Issuer) sign(userID, kind string, ttl time.Duration, appointmentID, roomID string) (string, error) {
	now := i.cfg.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   userID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind:          kind,
		AppointmentID: appointmentID,
		RoomID:        roomID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Parse verifies signature, issuer and expiry.
func (i *Issuer) Parse(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.cfg.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &claims, nil
}
