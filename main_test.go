package main

import (
	"os"
	"testing"

	"tracegate/cmd"
)

func TestMain(m *testing.M) {
	// Run tests
	code := m.Run()
	os.Exit(code)
}

func TestVersion(t *testing.T) {
	// Test default version
	if version != "dev" {
		t.Errorf("Expected default version to be 'dev', got %s", version)
	}

	// Test setting version
	testVersion := "1.2.3"
	version = testVersion
	if version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, version)
	}

	// Reset version
	version = "dev"
}

func TestSetVersionWiring(t *testing.T) {
	cmd.SetVersion(version)
	if cmd.GetVersion() != version {
		t.Errorf("Expected cmd version %s, got %s", version, cmd.GetVersion())
	}
}
