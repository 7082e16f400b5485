package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeINI(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "launcher.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write launcher.ini: %v", err)
	}
	return path
}

const validINI = `[config]
biobeamer_repo_url = https://example.org/biobeamer.git
xml_file_path = https://example.org/BioBeamerConfig.xml
host_name = testhost
log_dir = /tmp/biobeamer-logs
password = s3cret
sync_branches_to_remote = true
`

func TestLoad_ReadsAllKeys(t *testing.T) {
	path := writeINI(t, t.TempDir(), validINI)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.RepoURL != "https://example.org/biobeamer.git" {
		t.Errorf("RepoURL = %q", cfg.RepoURL)
	}
	if cfg.DescriptorPath != "https://example.org/BioBeamerConfig.xml" {
		t.Errorf("DescriptorPath = %q", cfg.DescriptorPath)
	}
	if cfg.HostName != "testhost" {
		t.Errorf("HostName = %q", cfg.HostName)
	}
	if cfg.LogDir != "/tmp/biobeamer-logs" {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.Password != "s3cret" {
		t.Errorf("Password = %q", cfg.Password)
	}
	if !cfg.SyncBranches {
		t.Error("SyncBranches = false, want true")
	}
}

func TestLoad_DefaultsOptionalKeys(t *testing.T) {
	cacheDir := t.TempDir()
	t.Setenv(EnvCacheDir, cacheDir)

	path := writeINI(t, t.TempDir(), `[config]
biobeamer_repo_url = https://example.org/biobeamer.git
xml_file_path = /etc/BioBeamerConfig.xml
host_name = testhost
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Password != "" {
		t.Errorf("Password = %q, want empty", cfg.Password)
	}
	if cfg.SyncBranches {
		t.Error("SyncBranches = true, want default false")
	}
	if cfg.CacheDir != cacheDir {
		t.Errorf("CacheDir = %q, want env override %q", cfg.CacheDir, cacheDir)
	}
	if cfg.LogDir != cacheDir {
		t.Errorf("LogDir = %q, want cache root fallback", cfg.LogDir)
	}
}

func TestLoad_MissingRequiredKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing_repo_url",
			body: "[config]\nxml_file_path = /x.xml\nhost_name = h\n",
			want: "biobeamer_repo_url",
		},
		{
			name: "missing_xml_path",
			body: "[config]\nbiobeamer_repo_url = u\nhost_name = h\n",
			want: "xml_file_path",
		},
		{
			name: "missing_host_name",
			body: "[config]\nbiobeamer_repo_url = u\nxml_file_path = /x.xml\n",
			want: "host_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeINI(t, t.TempDir(), tt.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not name key %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.ini")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigPath, "/opt/biobeamer/launcher.ini")
	if got := DefaultPath(); got != "/opt/biobeamer/launcher.ini" {
		t.Errorf("DefaultPath() = %q", got)
	}
}

func TestSSHDebugToggle(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "on"} {
		t.Setenv(EnvSSHDebug, v)
		cfg := &Config{}
		cfg.applyEnv()
		if !cfg.SSHDebug {
			t.Errorf("SSHDebug not set for %q", v)
		}
	}
	t.Setenv(EnvSSHDebug, "0")
	cfg := &Config{}
	cfg.applyEnv()
	if cfg.SSHDebug {
		t.Error("SSHDebug set for \"0\"")
	}
}
