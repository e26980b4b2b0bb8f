package authapi

import (
	"time"

	"github.com/Amatex1/pryde-backend-sub001/internal/auth/session"
)

type deviceRequest struct {
	Label       string `json:"label"`
	Browser     string `json:"browser"`
	OS          string `json:"os"`
	Fingerprint string `json:"fingerprint"`
}

type loginRequest struct {
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Device   deviceRequest `json:"device"`

	// Web opts into the cookie refresh transport: the refresh token is
	// set as an HttpOnly cookie and omitted from the JSON body.
	Web bool `json:"web"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type disavowRequest struct {
	Token string `json:"token"`
}

type tokenPairResponse struct {
	SessionID        string    `json:"session_id"`
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type loginResponse struct {
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`

	NewDevice  bool `json:"new_device"`
	Suspicious bool `json:"suspicious"`

	Session tokenPairResponse `json:"session"`
}

type refreshResponse struct {
	Session tokenPairResponse `json:"session"`
}

type sessionSummary struct {
	SessionID    string    `json:"session_id"`
	Device       device    `json:"device"`
	IPAddress    string    `json:"ip_address"`
	Location     location  `json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

type device struct {
	Label       string `json:"label"`
	Browser     string `json:"browser"`
	OS          string `json:"os"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type location struct {
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
	Country string `json:"country,omitempty"`
}

type sessionsResponse struct {
	Sessions []sessionSummary `json:"sessions"`
}

type disavowResponse struct {
	Revoked int64 `json:"revoked"`
}

func toPairResponse(p session.Pair) tokenPairResponse {
	return tokenPairResponse{
		SessionID:        p.SessionID,
		AccessToken:      p.AccessToken,
		AccessExpiresAt:  p.AccessExp,
		RefreshToken:     p.RefreshToken,
		RefreshExpiresAt: p.RefreshExp,
	}
}

func toSummaryResponse(s session.Summary) sessionSummary {
	return sessionSummary{
		SessionID: s.SessionID,
		Device: device{
			Label:       s.Device.Label,
			Browser:     s.Device.Browser,
			OS:          s.Device.OS,
			Fingerprint: s.Device.Fingerprint,
		},
		IPAddress: s.IPAddress,
		Location: location{
			City:    s.Location.City,
			Region:  s.Location.Region,
			Country: s.Location.Country,
		},
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
	}
}
