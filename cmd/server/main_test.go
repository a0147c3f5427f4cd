package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/plant-maintenance/internal/config"
	"github.com/iliyamo/plant-maintenance/internal/database"
	"github.com/iliyamo/plant-maintenance/internal/mailer"
	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/utils"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "worker": false, "migrate": false, "create-admin": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestCreateAdmin(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	u, err := createAdmin(cmd, db, bcrypt.MinCost, " Root@Example.com ", "Root", "hunter22")
	if err != nil {
		t.Fatalf("createAdmin: %v", err)
	}
	if u.Role != model.RoleAdmin || !u.IsVerified || u.Email != "root@example.com" {
		t.Errorf("admin = %+v", u)
	}
	if !utils.VerifyPassword(u.PasswordHash, "hunter22") {
		t.Error("stored hash does not match password")
	}

	_, err = createAdmin(cmd, db, bcrypt.MinCost, "root@example.com", "Root", "hunter22")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("duplicate err = %v", err)
	}
	if _, err := createAdmin(cmd, db, bcrypt.MinCost, "nope", "Root", "hunter22"); err == nil {
		t.Error("expected error for invalid email")
	}
	if _, err := createAdmin(cmd, db, bcrypt.MinCost, "x@example.com", "Root", "123"); !errors.Is(err, utils.ErrPasswordTooShort) {
		t.Errorf("short password err = %v, want ErrPasswordTooShort", err)
	}
}

func TestSelectSender_ProductionNeedsRelay(t *testing.T) {
	if _, _, err := selectSender(config.Config{Env: "production"}, zap.NewNop()); err == nil {
		t.Error("production without a relay should fail")
	}

	s, closeFn, err := selectSender(config.Config{Env: "development"}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	ls, ok := s.(mailer.LogSender)
	if !ok || !ls.ShowSecrets {
		t.Errorf("development sender = %#v, want LogSender showing secrets", s)
	}
}
