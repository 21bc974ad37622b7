package user

import (
	"time"

	userDatamodel "github.com/authkit/authkit/internal/core/datamodel/user"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("User", func() {
	ginkgo.Describe("FullName", func() {
		ginkgo.It("should join first and last name", func() {
			u := &User{FirstName: "Alice", LastName: "Smith"}
			gomega.Expect(u.FullName()).To(gomega.Equal("Alice Smith"))
		})

		ginkgo.It("should fall back to whichever name is set", func() {
			gomega.Expect((&User{FirstName: "Alice"}).FullName()).To(gomega.Equal("Alice"))
			gomega.Expect((&User{LastName: "Smith"}).FullName()).To(gomega.Equal("Smith"))
			gomega.Expect((&User{}).FullName()).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("datamodel mapping", func() {
		ginkgo.It("should survive the trip to the persistence record and back", func() {
			birthDate := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
			lastLogin := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
			u := &User{
				ID:           "id-alice",
				Username:     "alice",
				Email:        "alice@example.com",
				PasswordHash: "hash",
				FirstName:    "Alice",
				LastName:     "Smith",
				PhoneNumber:  "+14155552671",
				BirthDate:    &birthDate,
				IsActive:     true,
				LastLogin:    &lastLogin,
			}

			gomega.Expect(FromDataModel(ToDataModel(u))).To(gomega.Equal(u))
		})

		ginkgo.It("should keep optional fields nil", func() {
			record := &userDatamodel.User{ID: "id-bob", Username: "bob", Email: "bob@example.com"}

			u := FromDataModel(record)
			gomega.Expect(u.BirthDate).To(gomega.BeNil())
			gomega.Expect(u.LastLogin).To(gomega.BeNil())
		})
	})
})
