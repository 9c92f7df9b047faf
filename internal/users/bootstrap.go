package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/dfcarvalho/radiostock-backend/pkg/config"
	"github.com/dfcarvalho/radiostock-backend/pkg/enums"
	"github.com/dfcarvalho/radiostock-backend/pkg/security"
)

// EnsureAdmin seeds the first admin account when the users table is empty.
// It is a no-op when accounts already exist or the bootstrap config is
// incomplete, so restarts are safe.
func EnsureAdmin(ctx context.Context, repo *Repository, bootstrap config.BootstrapConfig, passwords config.PasswordConfig) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(bootstrap.AdminEmail))
	if email == "" || bootstrap.AdminPassword == "" {
		return false, nil
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := security.HashPassword(bootstrap.AdminPassword, passwords)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  bootstrap.AdminName,
		Permissions:  []string{string(enums.PermissionAdmin)},
	}); err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}
	return true, nil
}
