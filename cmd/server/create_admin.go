package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/iliyamo/plant-maintenance/internal/config"
	"github.com/iliyamo/plant-maintenance/internal/database"
	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/repository"
	"github.com/iliyamo/plant-maintenance/internal/utils"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a verified administrator account",
	Long:  "Create a verified administrator account. Admins cannot sign up through the API.",
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().String("email", "", "admin email address")
	createAdminCmd.Flags().String("name", "Administrator", "display name")
	createAdminCmd.Flags().String("password", "", fmt.Sprintf("initial password (min %d characters)", utils.MinPasswordLength))
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")

	cfg := config.Load()
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(cmd.Context(), db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	u, err := createAdmin(cmd, db, cfg.BcryptCost, email, name, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %d\n", u.Email, u.ID)
	return nil
}

func createAdmin(cmd *cobra.Command, db *sqlx.DB, cost int, email, name, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if !strings.Contains(email, "@") {
		return nil, errors.New("a valid --email is required")
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("--password: %w", err)
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &model.User{Email: email, PasswordHash: hash, Name: name, Role: model.RoleAdmin, IsVerified: true}
	if err := repository.NewUserRepo(db).Create(cmd.Context(), u); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("a user with email %s already exists", email)
		}
		return nil, err
	}
	return u, nil
}
