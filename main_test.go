package main

import (
	"os"
	"syscall"
	"testing"
)

func TestNotifySignals(t *testing.T) {
	var hasTerm bool
	for _, s := range notifySignals {
		if s == os.Kill {
			t.Errorf("SIGKILL cannot be caught and must not be listed")
		}
		if s == syscall.SIGTERM {
			hasTerm = true
		}
	}
	if !hasTerm {
		t.Errorf("SIGTERM must cancel the command context")
	}
}
