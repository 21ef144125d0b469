package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ukydev/toll-scenario/internal/auth"
	"github.com/ukydev/toll-scenario/internal/db"
	"github.com/ukydev/toll-scenario/internal/models"
)

func (a *app) authService() *auth.Service {
	return auth.NewService(a.cfg.JWTSecret, a.cfg.JWTExpiry, nil)
}

func (a *app) hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash to use as OPERATOR_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.authService()
			if err := svc.ValidatePassword(args[0]); err != nil {
				return err
			}
			hash, err := svc.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func (a *app) operatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage operator accounts stored in MongoDB",
	}
	cmd.AddCommand(a.operatorAddCmd())
	return cmd
}

func (a *app) operatorAddCmd() *cobra.Command {
	var (
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "add [username]",
		Short: "Create an operator account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.authService()
			if err := svc.ValidateUsername(args[0]); err != nil {
				return err
			}
			if err := svc.ValidatePassword(password); err != nil {
				return err
			}
			if !models.IsValidRole(models.Role(role)) {
				return fmt.Errorf("invalid role %q", role)
			}
			if a.cfg.MongoURI == "" {
				return fmt.Errorf("MONGO_URI is required to store operators")
			}
			hash, err := svc.HashPassword(password)
			if err != nil {
				return err
			}

			client, err := db.ConnectMongo(a.cfg.MongoURI)
			if err != nil {
				return err
			}
			defer client.Disconnect(cmd.Context())

			ops := &db.MongoOperatorCollection{Collection: client.Database(a.cfg.MongoDB).Collection(db.OperatorsCollection)}
			if err := ops.InsertOperator(cmd.Context(), models.Operator{
				Username:     args[0],
				PasswordHash: hash,
				Role:         models.Role(role),
			}); err != nil {
				return fmt.Errorf("failed to insert operator: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s operator %s\n", role, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password (min 8 characters)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleOperator), "operator or viewer")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
