// Creates the initial admin account. Meant to be run once against a fresh
// database, before the service takes traffic.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/akulikov/invauth/internal/db"
	"github.com/akulikov/invauth/internal/models"
	"github.com/akulikov/invauth/internal/repository"
	"github.com/akulikov/invauth/internal/repository/postgres"
	"github.com/akulikov/invauth/internal/service/auth"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "seedadmin: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		dsn      string
		name     string
		email    string
		password string
	)

	fs := pflag.NewFlagSet("seedadmin", pflag.ContinueOnError)
	fs.StringVarP(&dsn, "database", "d", os.Getenv("DATABASE_URI"), "Database connection string")
	fs.StringVar(&name, "name", "Admin", "Admin user name")
	fs.StringVar(&email, "email", "", "Admin user email")
	fs.StringVar(&password, "password", "", "Admin user password")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if dsn == "" || email == "" || password == "" {
		return fmt.Errorf("database, email and password are required")
	}

	pool, err := db.ConnectAndMigrate(ctx, dsn)
	if err != nil {
		return fmt.Errorf("can't connect to db: %w", err)
	}
	defer pool.Close()

	hash, err := auth.DefaultHasher.Hash(password)
	if err != nil {
		return fmt.Errorf("can't hash password: %w", err)
	}

	storage := postgres.NewStorage(pool)
	user, err := storage.User().CreateUser(ctx, repository.CreateUserParams{
		Name:           name,
		Email:          email,
		HashedPassword: hash,
		Role:           models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("can't create admin user: %w", err)
	}

	fmt.Printf("created admin user %s (%s)\n", user.Email, user.ID)
	return nil
}
