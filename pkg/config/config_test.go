package config

import (
	"testing"
	"time"
)

func TestStringFallsBackWhenUnset(t *testing.T) {
	if got := String("CMS_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("String: %q", got)
	}
	t.Setenv("CMS_TEST_SET", "value")
	if got := String("CMS_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("String: %q", got)
	}
}

func TestIntRejectsMalformedValues(t *testing.T) {
	t.Setenv("CMS_TEST_INT", "12")
	if got := Int("CMS_TEST_INT", 5); got != 12 {
		t.Fatalf("Int: %d", got)
	}
	t.Setenv("CMS_TEST_INT", "twelve")
	if got := Int("CMS_TEST_INT", 5); got != 5 {
		t.Fatalf("Int with malformed value: %d", got)
	}
}

func TestDurationHelpers(t *testing.T) {
	t.Setenv("CMS_TEST_TTL", "90")
	if got := Minutes("CMS_TEST_TTL", 10); got != 90*time.Minute {
		t.Fatalf("Minutes: %v", got)
	}
	if got := Seconds("CMS_TEST_UNSET_TTL", 30); got != 30*time.Second {
		t.Fatalf("Seconds fallback: %v", got)
	}
}
