package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadStyle(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Captions.Style = "sparkle"
	writeTestConfig(t, env.configPath, env.cfg)

	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected validation error for unknown caption style")
	}
}

func TestConfigShowRedactsToken(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.APIToken = "s3cret"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "s3cret") {
		t.Fatalf("token leaked in output: %s", out)
	}
	requireContains(t, out, "<redacted>")
	requireContains(t, out, env.cfg.Paths.ReelsDir)
}

func TestEnvFileSuppliesBucket(t *testing.T) {
	env := setupCLITestEnv(t)
	envFile := filepath.Join(env.baseDir, "reelforge.env")
	if err := os.WriteFile(envFile, []byte("REELFORGE_GCS_BUCKET=from-env-file\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("REELFORGE_GCS_BUCKET") })

	out, _, err := runCLI(t, []string{"--env-file", envFile, "config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "from-env-file")
}

func TestMissingEnvFileFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"--env-file", filepath.Join(env.baseDir, "missing.env"), "config", "show"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing env file")
	}
}
