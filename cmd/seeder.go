package cmd

import (
	"fmt"
	"log"
	"time"

	userDatamodel "github.com/authkit/authkit/internal/core/datamodel/user"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with an admin account plus default roles and permissions for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		if clearData {
			for _, table := range []string{"user_roles", "role_permissions", "otp_challenges", "otp_secrets", "users", "roles", "permissions"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		adminUsername := "admin"
		adminEmail := "admin@mail.com"
		var adminID string
		row := db.Raw("SELECT id FROM users WHERE username = ?", adminUsername).Row()
		if err := row.Scan(&adminID); err != nil {
			adminID = uuid.NewString()
			now := time.Now()
			admin := &userDatamodel.User{
				ID:           adminID,
				Username:     adminUsername,
				Email:        adminEmail,
				PasswordHash: string(hash),
				IsActive:     true,
				Created:      now,
				Modified:     now,
			}
			if err := db.Create(admin).Error; err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			fmt.Println("Seeded admin user:", adminUsername)
		} else {
			fmt.Println("admin user already exists; will ensure roles")
		}

		permissions := []struct {
			Name string
			Desc string
		}{
			{"admin", "full administrator"},
			{"manage_users", "Can manage user accounts"},
			{"view_users", "Can view user accounts"},
		}

		for _, p := range permissions {
			var pid int64
			row := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row()
			if err := row.Scan(&pid); err != nil {
				if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
					log.Fatalf("failed to insert permission %s: %v", p.Name, err)
				}
			}
		}

		roles := []struct {
			Name        string
			Desc        string
			Permissions []string
		}{
			{"admin", "full administrator role", []string{"admin", "manage_users", "view_users"}},
			{"member", "regular member role", []string{"view_users"}},
		}

		for _, r := range roles {
			var rid int64
			row := db.Raw("SELECT id FROM roles WHERE name = ?", r.Name).Row()
			if err := row.Scan(&rid); err != nil {
				if err := db.Exec("INSERT INTO roles (name, description, created_at) VALUES (?, ?, now())", r.Name, r.Desc).Error; err != nil {
					log.Fatalf("failed to insert role %s: %v", r.Name, err)
				}
				if err := db.Raw("SELECT id FROM roles WHERE name = ?", r.Name).Row().Scan(&rid); err != nil {
					log.Fatalf("role not found after insert %s: %v", r.Name, err)
				}
			}

			for _, permName := range r.Permissions {
				var pid int64
				if err := db.Raw("SELECT id FROM permissions WHERE name = ?", permName).Row().Scan(&pid); err != nil {
					log.Fatalf("permission not found %s: %v", permName, err)
				}

				var exists int
				if err := db.Raw("SELECT 1 FROM role_permissions WHERE role_id = ? AND permission_id = ?", rid, pid).Row().Scan(&exists); err == nil {
					continue
				}

				if err := db.Exec("INSERT INTO role_permissions (role_id, permission_id, created_at) VALUES (?, ?, now())", rid, pid).Error; err != nil {
					log.Fatalf("failed to grant permission %s to role %s: %v", permName, r.Name, err)
				}
			}
		}

		var adminRoleID int64
		if err := db.Raw("SELECT id FROM roles WHERE name = ?", "admin").Row().Scan(&adminRoleID); err != nil {
			log.Fatalf("failed to lookup admin role id: %v", err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM user_roles WHERE user_id = ? AND role_id = ?", adminID, adminRoleID).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO user_roles (user_id, role_id, granted_by, created_at) VALUES (?, ?, NULL, now())", adminID, adminRoleID).Error; err != nil {
				log.Fatalf("failed to assign admin role: %v", err)
			}
		}

		fmt.Println("Assigned admin role to admin user:", adminUsername)
		fmt.Println("Roles and permissions seeded successfully")
	},
}
