package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository/postgres"
	"fleetrent-backend/internal/security"
)

var (
	tenantName string

	userTenantID string
	userEmail    string
	userName     string
	userRole     string

	tokenUserID   string
	tokenTenantID string
	tokenRole     string
	tokenEmail    string
	tokenTTL      time.Duration
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(tenantName) == "" {
			return fmt.Errorf("--name is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		tenant := &domain.Tenant{ID: uuid.New(), Name: strings.TrimSpace(tenantName)}
		if err := postgres.NewStore(db).Tenants().Create(cmd.Context(), tenant); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		cmd.Printf("[OK] Tenant %q created: %s\n", tenant.Name, tenant.ID)
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage back-office users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user in a tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, err := uuid.Parse(userTenantID)
		if err != nil {
			return fmt.Errorf("invalid --tenant: %w", err)
		}
		role := domain.UserRole(userRole)
		if !role.Valid() {
			return fmt.Errorf("unknown role %q", userRole)
		}
		if strings.TrimSpace(userEmail) == "" {
			return fmt.Errorf("--email is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		store := postgres.NewStore(db)
		if _, err := store.Tenants().GetByID(cmd.Context(), tenantID); err != nil {
			return fmt.Errorf("load tenant: %w", err)
		}
		user := &domain.User{
			ID:       uuid.New(),
			TenantID: tenantID,
			Email:    strings.ToLower(strings.TrimSpace(userEmail)),
			Name:     userName,
			Role:     role,
			IsActive: true,
		}
		if err := store.Users().Create(cmd.Context(), user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		cmd.Printf("[OK] User %s created: %s (%s)\n", user.Email, user.ID, user.Role)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for local testing",
	Long: `Issue an access token signed with the configured JWT secret. Production tokens
come from the identity provider; this command exists for local testing and smoke tests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(tokenUserID)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
		tenantID, err := uuid.Parse(tokenTenantID)
		if err != nil {
			return fmt.Errorf("invalid --tenant: %w", err)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		tm := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, tokenTTL)
		token, err := tm.IssueAccessToken(userID, tenantID, tokenEmail, tokenRole)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		cmd.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tenantCmd, userCmd, tokenCmd)
	tenantCmd.AddCommand(tenantCreateCmd)
	userCmd.AddCommand(userCreateCmd)

	tenantCreateCmd.Flags().StringVar(&tenantName, "name", "", "Tenant display name")

	userCreateCmd.Flags().StringVar(&userTenantID, "tenant", "", "Tenant id")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "User email")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "User display name")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(domain.UserRoleAgent), "Role: admin, agent or viewer")
	_ = userCreateCmd.MarkFlagRequired("tenant")

	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "User id (subject)")
	tokenCmd.Flags().StringVar(&tokenTenantID, "tenant", "", "Tenant id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "Informational role claim")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
	_ = tokenCmd.MarkFlagRequired("tenant")
}
