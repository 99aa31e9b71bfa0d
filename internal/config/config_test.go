package config

import "testing"

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("TEMPOLENS_TEST_STRING", "")
	if got := getEnv("TEMPOLENS_TEST_STRING", "fallback"); got != "fallback" {
		t.Errorf("getEnv() = %q, want fallback", got)
	}
}

func TestGetEnvOverride(t *testing.T) {
	t.Setenv("TEMPOLENS_TEST_STRING", "custom")
	if got := getEnv("TEMPOLENS_TEST_STRING", "fallback"); got != "custom" {
		t.Errorf("getEnv() = %q, want custom", got)
	}
}

func TestGetEnvIntDefaultOnMissingOrInvalid(t *testing.T) {
	t.Setenv("TEMPOLENS_TEST_INT", "")
	if got := getEnvInt("TEMPOLENS_TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt() = %d, want 7", got)
	}

	t.Setenv("TEMPOLENS_TEST_INT", "not-a-number")
	if got := getEnvInt("TEMPOLENS_TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt() with invalid value = %d, want default 7", got)
	}
}

func TestGetEnvIntOverride(t *testing.T) {
	t.Setenv("TEMPOLENS_TEST_INT", "42")
	if got := getEnvInt("TEMPOLENS_TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt() = %d, want 42", got)
	}
}

func TestGetEnvFloatDefaultAndOverride(t *testing.T) {
	t.Setenv("TEMPOLENS_TEST_FLOAT", "")
	if got := getEnvFloat("TEMPOLENS_TEST_FLOAT", 1.5); got != 1.5 {
		t.Errorf("getEnvFloat() = %v, want 1.5", got)
	}

	t.Setenv("TEMPOLENS_TEST_FLOAT", "2.75")
	if got := getEnvFloat("TEMPOLENS_TEST_FLOAT", 1.5); got != 2.75 {
		t.Errorf("getEnvFloat() = %v, want 2.75", got)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Threads != 4 {
		t.Errorf("Engine.Threads = %d, want default 4", cfg.Engine.Threads)
	}
	if cfg.WorkerPoolSize != 4 {
		t.Errorf("WorkerPoolSize = %d, want default 4", cfg.WorkerPoolSize)
	}
	if cfg.Label.BigPunishCP != 150 {
		t.Errorf("Label.BigPunishCP = %d, want default 150", cfg.Label.BigPunishCP)
	}
}
