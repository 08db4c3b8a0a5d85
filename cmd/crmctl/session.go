package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bookingcrm/internal/client"
	"bookingcrm/internal/domain"
)

func defaultSessionPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "crmctl", "session.json")
	}
	return ".crmctl-session.json"
}

func saveSession(path string, s domain.Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func loadSession(path string) (domain.Session, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Session{}, client.ErrNoSession
	}
	if err != nil {
		return domain.Session{}, err
	}
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Session{}, fmt.Errorf("read session: %w", err)
	}
	if !s.Valid() {
		return domain.Session{}, client.ErrNoSession
	}
	return s, nil
}

func clearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
