package app

import (
	"testing"
	"time"
)

func TestEnvDurationFallsBackOnBadValues(t *testing.T) {
	t.Setenv("PRYDE_TEST_DURATION", "not-a-duration")
	if got := EnvDuration("PRYDE_TEST_DURATION", 5*time.Second); got != 5*time.Second {
		t.Fatalf("EnvDuration(bad)=%v want default", got)
	}

	t.Setenv("PRYDE_TEST_DURATION", "-10s")
	if got := EnvDuration("PRYDE_TEST_DURATION", 5*time.Second); got != 5*time.Second {
		t.Fatalf("EnvDuration(negative)=%v want default", got)
	}

	t.Setenv("PRYDE_TEST_DURATION", "90s")
	if got := EnvDuration("PRYDE_TEST_DURATION", 5*time.Second); got != 90*time.Second {
		t.Fatalf("EnvDuration(valid)=%v want 90s", got)
	}
}

func TestEnvCSV(t *testing.T) {
	t.Setenv("PRYDE_TEST_CSV", " a, b ,,c ")
	got := EnvCSV("PRYDE_TEST_CSV", "")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("EnvCSV=%v want [a b c]", got)
	}

	t.Setenv("PRYDE_TEST_CSV", "")
	got = EnvCSV("PRYDE_TEST_CSV", "x,y")
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("EnvCSV default=%v want [x y]", got)
	}

	if got := EnvCSV("PRYDE_TEST_CSV_UNSET", ""); got != nil {
		t.Fatalf("EnvCSV empty=%v want nil", got)
	}
}

func TestEnvIntRejectsNonPositive(t *testing.T) {
	t.Setenv("PRYDE_TEST_INT", "0")
	if got := EnvInt("PRYDE_TEST_INT", 7); got != 7 {
		t.Fatalf("EnvInt(0)=%d want default", got)
	}
	t.Setenv("PRYDE_TEST_INT", "42")
	if got := EnvInt("PRYDE_TEST_INT", 7); got != 42 {
		t.Fatalf("EnvInt(42)=%d", got)
	}
}
