package session

import (
	"testing"
	"time"
)

func TestIsNewDevice(t *testing.T) {
	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	history := []LoginEvent{
		{At: base, IP: "203.0.113.10", Fingerprint: "fp-laptop", Country: "DE", Success: true},
		{At: base.Add(time.Hour), IP: "203.0.113.99", Fingerprint: "fp-attacker", Success: false},
	}

	tests := []struct {
		name        string
		ip          string
		fingerprint string
		trusted     []TrustedDevice
		want        bool
	}{
		{"known ip", "203.0.113.10", "fp-other", nil, false},
		{"known fingerprint", "198.51.100.1", "fp-laptop", nil, false},
		{"unseen ip and fingerprint", "198.51.100.1", "fp-phone", nil, true},
		{"failed attempts do not whitelist", "203.0.113.99", "fp-attacker", nil, true},
		{"trusted pair matches", "198.51.100.1", "fp-phone", []TrustedDevice{{Fingerprint: "fp-phone", IP: "198.51.100.1"}}, false},
		{"trusted fingerprint from unseen ip", "198.51.100.99", "fp-phone", []TrustedDevice{{Fingerprint: "fp-phone", IP: "198.51.100.1"}}, true},
		{"trusted ip with unseen fingerprint", "198.51.100.1", "fp-stolen", []TrustedDevice{{Fingerprint: "fp-phone", IP: "198.51.100.1"}}, true},
		{"fingerprint-only trust entry", "198.51.100.99", "fp-phone", []TrustedDevice{{Fingerprint: "fp-phone"}}, false},
		{"empty trust entry matches nothing", "198.51.100.1", "fp-phone", []TrustedDevice{{}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNewDevice(history, tt.ip, tt.fingerprint, tt.trusted)
			if got != tt.want {
				t.Errorf("IsNewDevice = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNewDeviceFirstLogin(t *testing.T) {
	if !IsNewDevice(nil, "203.0.113.10", "fp-laptop", nil) {
		t.Error("first login should count as a new device")
	}
}

func TestTrustedEntryIsNotSplitAcrossLogins(t *testing.T) {
	// A trusted device record names a fingerprint seen at a specific IP.
	// Presenting that fingerprint from elsewhere must not inherit the
	// trust, even with no login history at all.
	trusted := []TrustedDevice{{Fingerprint: "fp-home", IP: "198.51.100.7"}}

	if !IsNewDevice(nil, "203.0.113.99", "fp-home", trusted) {
		t.Error("trusted fingerprint from an unknown IP should be a new device")
	}
	if !IsNewDevice(nil, "198.51.100.7", "fp-burner", trusted) {
		t.Error("trusted IP with an unknown fingerprint should be a new device")
	}
	if IsNewDevice(nil, "198.51.100.7", "fp-home", trusted) {
		t.Error("the full trusted pair should not be a new device")
	}
}

func TestIsSuspicious(t *testing.T) {
	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	history := []LoginEvent{
		{At: base, IP: "203.0.113.10", Fingerprint: "fp-laptop", Country: "DE", Success: true},
		{At: base.Add(2 * time.Hour), IP: "203.0.113.11", Fingerprint: "fp-laptop", Country: "DE", Success: true},
	}

	tests := []struct {
		name    string
		history []LoginEvent
		ip      string
		fp      string
		loc     Location
		want    bool
	}{
		{"first login never suspicious", nil, "198.51.100.1", "fp-x", Location{Country: "US"}, false},
		{"known device same country", history, "203.0.113.10", "fp-laptop", Location{Country: "DE"}, false},
		{"new device", history, "198.51.100.1", "fp-phone", Location{Country: "DE"}, true},
		{"country drift on known device", history, "203.0.113.10", "fp-laptop", Location{Country: "US"}, true},
		{"unknown current location", history, "203.0.113.10", "fp-laptop", Location{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsSuspicious(tt.history, tt.ip, tt.fp, nil, tt.loc)
			if got != tt.want {
				t.Errorf("IsSuspicious = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSuspiciousUsesLatestKnownCountry(t *testing.T) {
	base := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	// Moved from DE to US; the US login is the most recent with a country.
	history := []LoginEvent{
		{At: base, IP: "203.0.113.10", Fingerprint: "fp-laptop", Country: "DE", Success: true},
		{At: base.Add(24 * time.Hour), IP: "198.51.100.7", Fingerprint: "fp-laptop", Country: "US", Success: true},
	}

	if IsSuspicious(history, "198.51.100.7", "fp-laptop", nil, Location{Country: "US"}) {
		t.Error("matching the latest country should not be suspicious")
	}
	if !IsSuspicious(history, "198.51.100.7", "fp-laptop", nil, Location{Country: "DE"}) {
		t.Error("reverting to an older country should be suspicious")
	}
}
