package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testConf struct {
	LogLevel string `yaml:"log_level"`
	Watches  []struct {
		Path   string   `yaml:"path"`
		Events []string `yaml:"events"`
	} `yaml:"watches"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return path
}

func TestFromYamlFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
watches:
  - path: /tmp/x
    events: [CREATE, DELETE]
`)

	var conf testConf
	if err := FromYamlFile(path, &conf); err != nil {
		t.Fatalf("FromYamlFile failed: %v", err)
	}

	if conf.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", conf.LogLevel)
	}
	if len(conf.Watches) != 1 || conf.Watches[0].Path != "/tmp/x" {
		t.Fatalf("unexpected watches: %+v", conf.Watches)
	}
	if len(conf.Watches[0].Events) != 2 {
		t.Errorf("unexpected events: %v", conf.Watches[0].Events)
	}
}

func TestFromYamlFileRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "log_lvel: debug\n")

	var conf testConf
	if err := FromYamlFile(path, &conf); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestFromYamlFileMissing(t *testing.T) {
	var conf testConf
	if err := FromYamlFile("/nonexistent/config.yaml", &conf); err == nil {
		t.Fatal("expected error for missing file")
	}
}
