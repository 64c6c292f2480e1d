package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ManuelReschke/RentPulse/app/models"
	"github.com/ManuelReschke/RentPulse/internal/pkg/backoffice"
)

type adminStore interface {
	Create(admin *models.AdminUser) error
	GetByEmail(email string) (*models.AdminUser, error)
}

type premiumService interface {
	GrantPremium(ctx context.Context, userID, adminID uint, expiresAt *time.Time) (*backoffice.GrantResult, error)
	RevokePremium(ctx context.Context, userID, adminID uint) (*models.Subscription, error)
}

type backend struct {
	admins  adminStore
	premium premiumService
}

// connectFunc opens the database lazily so --help works without one.
type connectFunc func(ctx context.Context) (*backend, error)

func newRootCmd(connect connectFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "rentpulse-admin",
		Short:         "RentPulse back-office tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCreateAdminCmd(connect),
		newGrantPremiumCmd(connect),
		newRevokePremiumCmd(connect),
	)
	return root
}

func newCreateAdminCmd(connect connectFunc) *cobra.Command {
	var name, role, password string
	cmd := &cobra.Command{
		Use:   "create-admin <email>",
		Short: "Create a back-office account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if role != models.ADMIN_ROLE_ADMIN && role != models.ADMIN_ROLE_SUPPORT {
				return fmt.Errorf("role must be %q or %q", models.ADMIN_ROLE_ADMIN, models.ADMIN_ROLE_SUPPORT)
			}
			admin, err := models.NewAdminUser(args[0], name, password, role)
			if err != nil {
				return err
			}

			b, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			existing, err := b.admins.GetByEmail(admin.Email)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if existing != nil {
				return fmt.Errorf("admin %s already exists", admin.Email)
			}
			if err := b.admins.Create(admin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %d (%s, %s)\n", admin.ID, admin.Email, admin.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", models.ADMIN_ROLE_ADMIN, "admin or support")
	cmd.Flags().StringVar(&password, "password", "", "password, defaults to $ADMIN_PASSWORD")
	return cmd
}

func newGrantPremiumCmd(connect connectFunc) *cobra.Command {
	var userID uint
	var adminEmail, expires string
	cmd := &cobra.Command{
		Use:   "grant-premium",
		Short: "Grant complimentary premium to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var expiresAt *time.Time
			if expires != "" {
				t, err := time.Parse("2006-01-02", expires)
				if err != nil {
					return fmt.Errorf("--expires must be YYYY-MM-DD: %w", err)
				}
				expiresAt = &t
			}

			b, admin, err := connectAs(cmd.Context(), connect, adminEmail)
			if err != nil {
				return err
			}
			res, err := b.premium.GrantPremium(cmd.Context(), userID, admin.ID, expiresAt)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user %d: %s\n", userID, res.Subscription.Status)
			if res.ExternalSubscriptionCancelled {
				fmt.Fprintln(out, "cancelled the user's paid subscription")
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&adminEmail, "admin", "", "email of the admin recorded in the audit log")
	cmd.Flags().StringVar(&expires, "expires", "", "optional expiry date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func newRevokePremiumCmd(connect connectFunc) *cobra.Command {
	var userID uint
	var adminEmail string
	cmd := &cobra.Command{
		Use:   "revoke-premium",
		Short: "Revoke granted premium from a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, admin, err := connectAs(cmd.Context(), connect, adminEmail)
			if err != nil {
				return err
			}
			sub, err := b.premium.RevokePremium(cmd.Context(), userID, admin.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d: %s\n", userID, sub.Status)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&adminEmail, "admin", "", "email of the admin recorded in the audit log")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

// connectAs resolves the acting admin; audit rows always name a real account.
func connectAs(ctx context.Context, connect connectFunc, email string) (*backend, *models.AdminUser, error) {
	b, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	admin, err := b.admins.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && admin == nil) {
		return nil, nil, fmt.Errorf("admin %s not found", email)
	}
	if err != nil {
		return nil, nil, err
	}
	if !admin.IsActive {
		return nil, nil, fmt.Errorf("admin %s is inactive", email)
	}
	return b, admin, nil
}
