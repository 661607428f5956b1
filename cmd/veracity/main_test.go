package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	expected := []string{"daemon", "status", "articles", "check", "show", "jobs", "test-notify", "config"}
	for _, name := range expected {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"config", "init", "--path", target})

	if err := root.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read generated config: %v", err)
	}
	if !strings.Contains(string(data), "[verifier]") {
		t.Fatal("generated config missing verifier section")
	}
	if !strings.Contains(out.String(), target) {
		t.Fatalf("output should mention target path: %q", out.String())
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	root := newRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"config", "init", "--path", target})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(data) != "# existing" {
		t.Fatal("existing config was clobbered")
	}
}

func TestAPIAddressResolution(t *testing.T) {
	api := ""
	configPath := filepath.Join(t.TempDir(), "missing.toml")
	t.Setenv("VERACITY_VERIFIER_BASE_URL", "https://checker.example.com")

	ctx := newCommandContext(&api, &configPath)
	address, _, err := ctx.apiAddress()
	if err != nil {
		t.Fatalf("apiAddress: %v", err)
	}
	if address != "127.0.0.1:7519" {
		t.Fatalf("expected default bind, got %q", address)
	}

	override := "127.0.0.1:9999"
	ctx = newCommandContext(&override, &configPath)
	address, _, err = ctx.apiAddress()
	if err != nil {
		t.Fatalf("apiAddress with flag: %v", err)
	}
	if address != override {
		t.Fatalf("flag override ignored, got %q", address)
	}
}
