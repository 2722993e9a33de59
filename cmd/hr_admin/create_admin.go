package main

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/jonathan/hr-admin/internal/config"
	"github.com/jonathan/hr-admin/internal/db"
	"github.com/jonathan/hr-admin/internal/server"
	"github.com/jonathan/hr-admin/internal/types"
)

var (
	createAdminName     string
	createAdminEmail    string
	createAdminPhone    string
	createAdminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Create a user with the admin role. The password is prompted for unless
--password is given.`,
	RunE: runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVarP(&createAdminName, "name", "n", "", "Full name (required)")
	createAdminCmd.Flags().StringVarP(&createAdminEmail, "email", "e", "", "Email address (required)")
	createAdminCmd.Flags().StringVar(&createAdminPhone, "phone", "", "Phone number")
	createAdminCmd.Flags().StringVar(&createAdminPassword, "password", "", "Password (prompted for when omitted)")

	if err := createAdminCmd.MarkFlagRequired("name"); err != nil {
		panic(fmt.Sprintf("failed to mark name flag as required: %v", err))
	}
	if err := createAdminCmd.MarkFlagRequired("email"); err != nil {
		panic(fmt.Sprintf("failed to mark email flag as required: %v", err))
	}

	rootCmd.AddCommand(createAdminCmd)
}

// validatePassword enforces the registration password rules.
func validatePassword(input string) error {
	if len(input) < config.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", config.MinPasswordLength)
	}
	return nil
}

func promptPassword() (string, error) {
	password, err := (&promptui.Prompt{
		Label:    "Password",
		Mask:     '*',
		Validate: validatePassword,
	}).Run()
	if err != nil {
		return "", err
	}

	_, err = (&promptui.Prompt{
		Label: "Confirm password",
		Mask:  '*',
		Validate: func(input string) error {
			if input != password {
				return errors.New("passwords do not match")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return "", err
	}
	return password, nil
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	password := createAdminPassword
	if password == "" {
		var err error
		if password, err = promptPassword(); err != nil {
			return fmt.Errorf("password prompt aborted: %w", err)
		}
	}

	req := &types.CreateUserRequest{
		Name:     createAdminName,
		Email:    createAdminEmail,
		Phone:    createAdminPhone,
		Password: password,
		Role:     string(db.RoleAdmin),
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid admin details: %w", err)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	user, err := server.NewUserService(database, &cfg.Password).Register(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s <%s> (%s)\n", user.Name, user.Email, user.ID)
	return nil
}
