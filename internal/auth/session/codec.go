package session

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

// Token kinds carried in the "kind" claim. A refresh token fed into
// VerifyAccess fails on both the signing key and this claim, and vice
// versa.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the identity envelope recovered from a verified token.
type Claims struct {
	UserID    string
	SessionID string
	Kind      string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// Pair is a freshly minted access/refresh token pair for one session.
type Pair struct {
	SessionID    string
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// Codec signs and verifies session tokens. It is stateless and performs
// no storage access: whether a refresh secret is still honored is the
// store's decision (VerifySecret), not the codec's.
//
// Access tokens are signed with key S1, refresh tokens with key S2.
type Codec struct {
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clockSkew  time.Duration

	accessSecret  paseto.V4AsymmetricSecretKey
	accessPublic  paseto.V4AsymmetricPublicKey
	refreshSecret paseto.V4AsymmetricSecretKey
	refreshPublic paseto.V4AsymmetricPublicKey
}

// NewCodec builds a Codec from the configured PASETO v4 keypairs.
//
// Clock skew is applied during verification via ValidAt to tolerate
// minor clock differences.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessSecretKeyHex == "" || cfg.RefreshSecretKeyHex == "" ||
		cfg.AccessSecretKeyHex == cfg.RefreshSecretKeyHex {
		return nil, ErrConfig
	}

	accessSecret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.AccessSecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}
	refreshSecret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.RefreshSecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &Codec{
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		clockSkew:     cfg.ClockSkew,
		accessSecret:  accessSecret,
		accessPublic:  accessSecret.Public(),
		refreshSecret: refreshSecret,
		refreshPublic: refreshSecret.Public(),
	}, nil
}

// AccessPublicKeyHex exports the access verification key for other services.
func (c *Codec) AccessPublicKeyHex() string {
	return c.accessPublic.ExportHex()
}

// MintPair issues a fresh access/refresh pair for the given user and
// session. An empty sessionID generates a fresh random identifier.
//
// Pure apart from randomness and the supplied clock.
func (c *Codec) MintPair(userID, sessionID string, now time.Time) (Pair, error) {
	if sessionID == "" {
		id, err := NewSessionID()
		if err != nil {
			return Pair{}, err
		}
		sessionID = id
	}

	accessToken, accessExp := c.sign(c.accessSecret, userID, sessionID, KindAccess, now, c.accessTTL)
	refreshToken, refreshExp := c.sign(c.refreshSecret, userID, sessionID, KindRefresh, now, c.refreshTTL)

	return Pair{
		SessionID:    sessionID,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: refreshToken,
		RefreshExp:   refreshExp,
	}, nil
}

// VerifyAccess verifies an access token against key S1.
func (c *Codec) VerifyAccess(tok string, now time.Time) (Claims, error) {
	return c.verify(c.accessPublic, tok, KindAccess, now)
}

// VerifyRefresh verifies a refresh token against key S2.
func (c *Codec) VerifyRefresh(tok string, now time.Time) (Claims, error) {
	return c.verify(c.refreshPublic, tok, KindRefresh, now)
}

func (c *Codec) sign(key paseto.V4AsymmetricSecretKey, userID, sessionID, kind string, now time.Time, ttl time.Duration) (string, time.Time) {
	exp := now.Add(ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(c.issuer)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)

	// Minimal, explicit claims.
	_ = tok.Set("uid", userID)
	_ = tok.Set("sid", sessionID)
	_ = tok.Set("kind", kind)

	return tok.V4Sign(key, nil), exp
}

func (c *Codec) verify(key paseto.V4AsymmetricPublicKey, tok, wantKind string, now time.Time) (Claims, error) {
	// Clock-skew tolerance:
	// Validate slightly in the future to avoid failing "nbf" when clocks
	// differ. This also makes expiration checks slightly stricter.
	validNow := now.Add(c.clockSkew)

	// Build a fresh parser per call to avoid accumulating rules across verifies.
	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(c.issuer))
	p.AddRule(paseto.NotExpired())
	p.AddRule(paseto.ValidAt(validNow))

	parsed, err := p.ParseV4Public(key, tok, nil)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	iss, _ := parsed.GetIssuer()
	exp, _ := parsed.GetExpiration()
	iat, _ := parsed.GetIssuedAt()

	uid, err := parsed.GetString("uid")
	if err != nil || uid == "" {
		return Claims{}, ErrInvalidToken
	}
	sid, err := parsed.GetString("sid")
	if err != nil || sid == "" {
		return Claims{}, ErrInvalidToken
	}
	kind, err := parsed.GetString("kind")
	if err != nil || kind != wantKind {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID:    uid,
		SessionID: sid,
		Kind:      kind,
		ExpiresAt: exp,
		IssuedAt:  iat,
		Issuer:    iss,
	}, nil
}
