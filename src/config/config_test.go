package config

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetDataDir(t *testing.T) {
	c := NewDefaultConfig()
	c.SetDataDir("/tmp/agent")

	if c.DatabaseDir != filepath.Join("/tmp/agent", DefaultBadgerFile) {
		t.Fatalf("DatabaseDir should follow DataDir, got %s", c.DatabaseDir)
	}
	if c.Keyfile() != filepath.Join("/tmp/agent", DefaultKeyfile) {
		t.Fatalf("unexpected keyfile %s", c.Keyfile())
	}
	if c.DNAFile() != filepath.Join("/tmp/agent", DefaultDNAFile) {
		t.Fatalf("unexpected dna file %s", c.DNAFile())
	}

	c.DatabaseDir = "/var/db"
	c.SetDataDir("/tmp/other")
	if c.DatabaseDir != "/var/db" {
		t.Fatalf("explicit DatabaseDir should be kept, got %s", c.DatabaseDir)
	}
	if c.CASDir() != filepath.Join("/var/db", "cas") || c.EAVDir() != filepath.Join("/var/db", "eav") {
		t.Fatalf("unexpected store dirs %s %s", c.CASDir(), c.EAVDir())
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"unknown": logrus.DebugLevel,
	}
	for in, want := range cases {
		if got := LogLevel(in); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", in, got, want)
		}
	}

	c := NewDefaultConfig()
	c.LogLevel = "warn"
	if c.Logger().Logger.Level != logrus.WarnLevel {
		t.Fatalf("logger level not applied")
	}
	if c.Logger().Data["prefix"] != "sourcechain" {
		t.Fatalf("logger prefix missing")
	}
}
