package session

import "time"

// LoginEvent is one entry of the per-account login history consumed by
// the risk heuristic. Country is empty when geolocation was unavailable
// at the time.
type LoginEvent struct {
	At          time.Time `json:"at"`
	IP          string    `json:"ip"`
	Fingerprint string    `json:"fingerprint"`
	Country     string    `json:"country"`
	Success     bool      `json:"success"`
}

// TrustedDevice is a device/IP pair the account holder has explicitly
// trusted.
type TrustedDevice struct {
	Fingerprint string `json:"fingerprint"`
	IP          string `json:"ip"`
}

// IsNewDevice reports whether this login comes from a device the
// account has never successfully used. It is false when a prior
// successful login recorded the same IP, or the same fingerprint, or a
// trusted entry matches as a pair. History matches are single-field;
// trust is granted to the device/IP combination, not to either half on
// its own.
//
// Pure classification over the supplied history; no side effects.
func IsNewDevice(history []LoginEvent, ip, fingerprint string, trusted []TrustedDevice) bool {
	for _, t := range trusted {
		if trustedMatch(t, ip, fingerprint) {
			return false
		}
	}
	for _, ev := range history {
		if !ev.Success {
			continue
		}
		if ev.IP != "" && ev.IP == ip {
			return false
		}
		if ev.Fingerprint != "" && ev.Fingerprint == fingerprint {
			return false
		}
	}
	return true
}

// IsSuspicious reports whether this login should be treated as risky:
// either it is from a new device, or the country of origin drifted from
// the most recent successful login with a recorded location (VPN or
// travel).
//
// A first-ever login is never suspicious -- there is no history to
// compare against -- though the caller may still treat it as a new
// device. The caller decides what to do with the classification (alert
// email, step-up auth); this function never sends anything.
func IsSuspicious(history []LoginEvent, ip, fingerprint string, trusted []TrustedDevice, current Location) bool {
	if !hasSuccessfulLogin(history) {
		return false
	}

	if IsNewDevice(history, ip, fingerprint, trusted) {
		return true
	}

	if current.Country == "" {
		return false
	}
	if last, ok := lastKnownCountry(history); ok && last != current.Country {
		return true
	}
	return false
}

// trustedMatch requires every recorded field of the entry to match the
// presented values. An entry with both fields empty matches nothing.
func trustedMatch(t TrustedDevice, ip, fingerprint string) bool {
	if t.Fingerprint == "" && t.IP == "" {
		return false
	}
	if t.Fingerprint != "" && t.Fingerprint != fingerprint {
		return false
	}
	if t.IP != "" && t.IP != ip {
		return false
	}
	return true
}

func hasSuccessfulLogin(history []LoginEvent) bool {
	for _, ev := range history {
		if ev.Success {
			return true
		}
	}
	return false
}

// lastKnownCountry returns the country of the most recent successful
// login that recorded one.
func lastKnownCountry(history []LoginEvent) (string, bool) {
	var (
		best    time.Time
		country string
		found   bool
	)
	for _, ev := range history {
		if !ev.Success || ev.Country == "" {
			continue
		}
		if !found || ev.At.After(best) {
			best = ev.At
			country = ev.Country
			found = true
		}
	}
	return country, found
}
