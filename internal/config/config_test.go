package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func envFunc(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Loader{GetEnv: envFunc(map[string]string{EnvConfigDir: dir})}.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := &Config{
		APIURL:     DefaultAPIURL,
		TimeoutSec: DefaultTimeoutSec,
		Retries:    DefaultRetries,
		DataDir:    dir,
		Parallel:   DefaultParallel,
		Dir:        dir,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.Path() != filepath.Join(dir, "config.yaml") {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), `
api_url: https://file.example.com/api
timeout_sec: 30
retries: 1
parallel: 5
verbose: true
`)
	dotenv := filepath.Join(t.TempDir(), ".env")
	writeFile(t, dotenv, "BIZFORGE_TIMEOUT_SEC=45\nBIZFORGE_RETRIES=4\n")

	env := map[string]string{
		EnvConfigDir: dir,
		EnvRetries:   "0",
		EnvJSONLogs:  "true",
	}
	cfg, err := Loader{GetEnv: envFunc(env), DotEnvPath: dotenv}.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIURL != "https://file.example.com/api" {
		t.Errorf("APIURL = %q, want value from file", cfg.APIURL)
	}
	if cfg.TimeoutSec != 45 {
		t.Errorf("TimeoutSec = %d, want .env value 45", cfg.TimeoutSec)
	}
	if cfg.Retries != 0 {
		t.Errorf("Retries = %d, want environment value 0 over .env", cfg.Retries)
	}
	if cfg.Parallel != 5 || !cfg.Verbose || !cfg.JSONLogs {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_MissingDotEnvIgnored(t *testing.T) {
	l := Loader{
		GetEnv:     envFunc(map[string]string{EnvConfigDir: t.TempDir()}),
		DotEnvPath: filepath.Join(t.TempDir(), "absent.env"),
	}
	if _, err := l.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoad_OverrideBeforeValidation(t *testing.T) {
	dir := t.TempDir()
	env := map[string]string{EnvConfigDir: dir, EnvAPIURL: "ftp://nowhere"}

	if _, err := (Loader{GetEnv: envFunc(env)}).Load(); err == nil {
		t.Fatal("Load() error = nil, want invalid api_url")
	}

	cfg, err := Loader{
		GetEnv:   envFunc(env),
		Override: func(c *Config) { c.APIURL = "https://api.example.com/api" },
	}.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != "https://api.example.com/api" {
		t.Errorf("APIURL = %q, want override", cfg.APIURL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr []string
	}{
		{
			name:    "bad numbers",
			env:     map[string]string{EnvTimeoutSec: "soon", EnvVerbose: "kinda"},
			wantErr: []string{EnvTimeoutSec, EnvVerbose},
		},
		{
			name:    "aggregated validation",
			env:     map[string]string{EnvAPIURL: "ftp://example.com", EnvRetries: "99", EnvParallel: "0"},
			wantErr: []string{"http or https", "retries", "parallel"},
		},
		{
			name:    "broken yaml",
			file:    "api_url: [unclosed",
			wantErr: []string{"config.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(dir, "config.yaml"), tt.file)
			}
			env := map[string]string{EnvConfigDir: dir}
			for k, v := range tt.env {
				env[k] = v
			}

			_, err := Loader{GetEnv: envFunc(env)}.Load()
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			for _, s := range tt.wantErr {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("error %q does not mention %q", err, s)
				}
			}
		})
	}
}

func TestDir(t *testing.T) {
	got, err := Dir(envFunc(map[string]string{EnvConfigDir: "/custom"}))
	if err != nil || got != "/custom" {
		t.Errorf("Dir() = %q, %v; want /custom", got, err)
	}

	if runtime.GOOS != "linux" {
		t.Skip("XDG rules apply on linux")
	}
	got, err = Dir(envFunc(map[string]string{"XDG_CONFIG_HOME": "/xdg"}))
	if err != nil || got != filepath.Join("/xdg", "bizforge") {
		t.Errorf("Dir() = %q, %v; want /xdg/bizforge", got, err)
	}
}
