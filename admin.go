package main

import (
	"fmt"
	"strings"

	"civicreport/config"
	"civicreport/models"

	"github.com/urfave/cli/v2"
)

var createAdminCommand = &cli.Command{
	Name:  "create-admin",
	Usage: "Create an administrator account",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "email", Required: true, Usage: "login email"},
		&cli.StringFlag{Name: "password", Required: true, Usage: "initial password, at least 6 characters"},
		&cli.StringFlag{Name: "name", Value: "Administrator", Usage: "display name"},
	},
	Action: createAdmin,
}

func createAdmin(cCtx *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Environment)

	password := cCtx.String("password")
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}

	b, err := openBackend(cCtx.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close(cCtx.Context)

	user := models.User{
		Email:    strings.TrimSpace(cCtx.String("email")),
		FullName: strings.TrimSpace(cCtx.String("name")),
		Role:     models.RoleAdmin,
		Password: password,
	}
	if err := user.HashPassword(); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	created, err := b.Store.CreateUser(cCtx.Context, &user)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.WithField("user_id", created.ID.Hex()).WithField("email", created.Email).Info("admin created")
	return nil
}
