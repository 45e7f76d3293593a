package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if len(cfg.Council.Members) == 0 {
		t.Fatal("default config should seat a council")
	}
	found := false
	for _, m := range cfg.Council.Members {
		if m == cfg.Council.Chairman {
			found = true
		}
	}
	if !found {
		t.Errorf("default chairman %q is not a member", cfg.Council.Chairman)
	}
	if cfg.Provider.Timeout() != 120*time.Second {
		t.Errorf("default provider timeout = %v", cfg.Provider.Timeout())
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("default config should validate cleanly: %v", ValidationErrors(errs))
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return Default() }

	t.Run("empty members", func(t *testing.T) {
		cfg := valid()
		cfg.Council.Members = nil
		errs := cfg.Validate()
		if len(errs) == 0 {
			t.Fatal("expected validation errors")
		}
	})

	t.Run("duplicate members", func(t *testing.T) {
		cfg := valid()
		cfg.Council.Members = []string{"m1", "m1"}
		cfg.Council.Chairman = "m1"
		errs := cfg.Validate()
		if len(errs) != 1 || errs[0].Field != "council.members" {
			t.Fatalf("errs = %v", ValidationErrors(errs))
		}
	})

	t.Run("chairman outside members", func(t *testing.T) {
		cfg := valid()
		cfg.Council.Chairman = "someone/else"
		errs := cfg.Validate()
		if len(errs) != 1 || errs[0].Field != "council.chairman" {
			t.Fatalf("errs = %v", ValidationErrors(errs))
		}
	})

	t.Run("threshold bounds", func(t *testing.T) {
		for _, bad := range []float64{0, -0.5, 1.5} {
			cfg := valid()
			cfg.Council.ConsensusThreshold = bad
			if errs := cfg.Validate(); len(errs) != 1 {
				t.Errorf("threshold %v: errs = %v", bad, ValidationErrors(errs))
			}
		}
		cfg := valid()
		cfg.Council.ConsensusThreshold = 1.0
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("threshold 1.0 should be valid: %v", ValidationErrors(errs))
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Level = "chatty"
		errs := cfg.Validate()
		if len(errs) != 1 || errs[0].Field != "logging.level" {
			t.Fatalf("errs = %v", ValidationErrors(errs))
		}
	})

	t.Run("multiple errors accumulate", func(t *testing.T) {
		cfg := valid()
		cfg.Council.Members = nil
		cfg.Council.Chairman = ""
		cfg.Provider.TimeoutSeconds = 0
		errs := cfg.Validate()
		if len(errs) < 3 {
			t.Fatalf("expected at least 3 errors, got %v", ValidationErrors(errs))
		}
		msg := ValidationErrors(errs).Error()
		if !strings.Contains(msg, "validation errors") {
			t.Errorf("aggregate message = %q", msg)
		}
	})
}
