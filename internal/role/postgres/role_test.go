package postgres_test

import (
	"context"
	"testing"
	"time"

	rolePostgres "github.com/authkit/authkit/internal/role/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRolePostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Role Postgres Suite")
}

// SQLite-compatible models for testing
type SQLiteRole struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (SQLiteRole) TableName() string {
	return "roles"
}

type SQLitePermission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (SQLitePermission) TableName() string {
	return "permissions"
}

type SQLiteRolePermission struct {
	ID           int64     `gorm:"primaryKey"`
	RoleID       int64     `gorm:"column:role_id;not null;uniqueIndex:idx_role_permission"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:idx_role_permission"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (SQLiteRolePermission) TableName() string {
	return "role_permissions"
}

type SQLiteUserRole struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_user_role"`
	RoleID    int64     `gorm:"column:role_id;not null;uniqueIndex:idx_user_role"`
	GrantedBy *string   `gorm:"column:granted_by"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (SQLiteUserRole) TableName() string {
	return "user_roles"
}

var _ = Describe("Role PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo *rolePostgres.Repository
		ctx  context.Context
	)

	const userID = "5d4c3b2a-1f0e-4d9c-8b7a-6e5f4d3c2b1a"

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteRole{}, &SQLitePermission{}, &SQLiteRolePermission{}, &SQLiteUserRole{})
		Expect(err).NotTo(HaveOccurred())

		repo = rolePostgres.NewRepository(db)
		ctx = context.Background()
	})

	Describe("CreateRole", func() {
		It("should create and look up a role by name", func() {
			created, err := repo.CreateRole(ctx, "editor", "can edit")
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(BeNumerically(">", 0))

			found, err := repo.GetRoleByName(ctx, "editor")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).NotTo(BeNil())
			Expect(found.Description).To(Equal("can edit"))
		})

		It("should fail on a duplicate name", func() {
			_, err := repo.CreateRole(ctx, "editor", "")
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.CreateRole(ctx, "editor", "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetRoleByName", func() {
		It("should return nil for an unknown role", func() {
			found, err := repo.GetRoleByName(ctx, "ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeNil())
		})

		It("should resolve the role's permissions", func() {
			role, err := repo.CreateRole(ctx, "editor", "")
			Expect(err).NotTo(HaveOccurred())
			perm, err := repo.CreatePermission(ctx, "edit_articles", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.GrantPermission(ctx, role.ID, perm.ID)).To(Succeed())

			found, err := repo.GetRoleByName(ctx, "editor")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Permissions).To(ConsistOf("edit_articles"))
		})
	})

	Describe("GrantPermission", func() {
		It("should be idempotent", func() {
			role, err := repo.CreateRole(ctx, "editor", "")
			Expect(err).NotTo(HaveOccurred())
			perm, err := repo.CreatePermission(ctx, "edit_articles", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.GrantPermission(ctx, role.ID, perm.ID)).To(Succeed())
			Expect(repo.GrantPermission(ctx, role.ID, perm.ID)).To(Succeed())

			found, err := repo.GetRoleByName(ctx, "editor")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Permissions).To(HaveLen(1))
		})
	})

	Describe("RevokePermission", func() {
		It("should detach the permission from the role", func() {
			role, err := repo.CreateRole(ctx, "editor", "")
			Expect(err).NotTo(HaveOccurred())
			perm, err := repo.CreatePermission(ctx, "edit_articles", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.GrantPermission(ctx, role.ID, perm.ID)).To(Succeed())

			Expect(repo.RevokePermission(ctx, role.ID, perm.ID)).To(Succeed())

			found, err := repo.GetRoleByName(ctx, "editor")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Permissions).To(BeEmpty())
		})
	})

	Describe("User roles", func() {
		It("should assign, list and revoke", func() {
			role, err := repo.CreateRole(ctx, "editor", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.AssignRole(ctx, userID, role.ID, nil)).To(Succeed())

			has, err := repo.UserHasRole(ctx, userID, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(has).To(BeTrue())

			roles, err := repo.GetUserRoles(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(HaveLen(1))
			Expect(roles[0].Name).To(Equal("editor"))

			Expect(repo.RevokeRole(ctx, userID, role.ID)).To(Succeed())

			has, err = repo.UserHasRole(ctx, userID, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(has).To(BeFalse())
		})

		It("should record who granted the role", func() {
			role, err := repo.CreateRole(ctx, "editor", "")
			Expect(err).NotTo(HaveOccurred())

			granter := "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
			Expect(repo.AssignRole(ctx, userID, role.ID, &granter)).To(Succeed())

			var stored SQLiteUserRole
			Expect(db.Where("user_id = ?", userID).First(&stored).Error).To(Succeed())
			Expect(stored.GrantedBy).NotTo(BeNil())
			Expect(*stored.GrantedBy).To(Equal(granter))
		})
	})

	Describe("GetUserPermissions", func() {
		It("should resolve distinct permissions across roles", func() {
			editor, err := repo.CreateRole(ctx, "editor", "")
			Expect(err).NotTo(HaveOccurred())
			reviewer, err := repo.CreateRole(ctx, "reviewer", "")
			Expect(err).NotTo(HaveOccurred())

			edit, err := repo.CreatePermission(ctx, "edit_articles", "")
			Expect(err).NotTo(HaveOccurred())
			view, err := repo.CreatePermission(ctx, "view_articles", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.GrantPermission(ctx, editor.ID, edit.ID)).To(Succeed())
			Expect(repo.GrantPermission(ctx, editor.ID, view.ID)).To(Succeed())
			Expect(repo.GrantPermission(ctx, reviewer.ID, view.ID)).To(Succeed())

			Expect(repo.AssignRole(ctx, userID, editor.ID, nil)).To(Succeed())
			Expect(repo.AssignRole(ctx, userID, reviewer.ID, nil)).To(Succeed())

			perms, err := repo.GetUserPermissions(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(ConsistOf("edit_articles", "view_articles"))
		})
	})
})
