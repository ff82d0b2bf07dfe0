package main

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("OBSD_TEST_KEY", "value")

	if got := getEnv("OBSD_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("getEnv = %q, want value", got)
	}
	if got := getEnv("OBSD_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want fallback", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "duration_string", value: "90s", want: 90 * time.Second},
		{name: "minutes", value: "5m", want: 5 * time.Minute},
		{name: "plain_seconds", value: "30", want: 30 * time.Second},
		{name: "garbage", value: "soon", want: time.Minute},
		{name: "empty", value: "", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OBSD_TEST_DURATION", tt.value)
			if got := getEnvDuration("OBSD_TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
