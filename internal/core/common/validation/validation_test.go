package validation_test

import (
	"testing"
	"time"

	apperrors "github.com/authkit/authkit/internal"
	"github.com/authkit/authkit/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

func fieldErrors(err *apperrors.AppError) []apperrors.ValidationError {
	Expect(err).NotTo(BeNil())
	details, ok := err.Details.(apperrors.ValidationErrors)
	Expect(ok).To(BeTrue())
	return details.Errors
}

var _ = Describe("Field validators", func() {
	Describe("ValidateUsername", func() {
		It("should accept a reasonable username", func() {
			Expect(validation.ValidateUsername("alice")).To(BeNil())
		})

		It("should reject an empty username", func() {
			err := validation.ValidateUsername("")
			errs := fieldErrors(err)
			Expect(errs[0].Field).To(Equal("username"))
		})

		It("should reject a username below the minimum length", func() {
			Expect(validation.ValidateUsername("abc")).NotTo(BeNil())
		})
	})

	Describe("ValidateEmail", func() {
		It("should accept a well formed address", func() {
			Expect(validation.ValidateEmail("alice@example.com")).To(BeNil())
		})

		It("should reject a malformed address", func() {
			err := validation.ValidateEmail("not-an-email")
			errs := fieldErrors(err)
			Expect(errs[0].Code).To(Equal(string(apperrors.ErrCodeInvalidEmail)))
		})

		It("should reject an empty address", func() {
			Expect(validation.ValidateEmail("")).NotTo(BeNil())
		})
	})

	Describe("ValidatePhoneNumber", func() {
		It("should accept E.164 numbers", func() {
			Expect(validation.ValidatePhoneNumber("+14155552671")).To(BeNil())
		})

		It("should allow an empty number", func() {
			Expect(validation.ValidatePhoneNumber("")).To(BeNil())
		})

		It("should reject numbers without a plus prefix", func() {
			err := validation.ValidatePhoneNumber("0812345678")
			errs := fieldErrors(err)
			Expect(errs[0].Code).To(Equal(string(apperrors.ErrCodeInvalidPhone)))
		})

		It("should reject numbers with letters", func() {
			Expect(validation.ValidatePhoneNumber("+62abc")).NotTo(BeNil())
		})
	})

	Describe("ValidateBirthDate", func() {
		It("should accept a past date", func() {
			past := time.Now().AddDate(-30, 0, 0)
			Expect(validation.ValidateBirthDate(&past)).To(BeNil())
		})

		It("should accept a nil date", func() {
			Expect(validation.ValidateBirthDate(nil)).To(BeNil())
		})

		It("should reject a future date", func() {
			future := time.Now().AddDate(1, 0, 0)
			err := validation.ValidateBirthDate(&future)
			errs := fieldErrors(err)
			Expect(errs[0].Code).To(Equal(string(apperrors.ErrCodeInvalidBirthDate)))
		})
	})

	Describe("ValidatePassword", func() {
		It("should accept a password within bounds", func() {
			Expect(validation.ValidatePassword("s3cretpass")).To(BeNil())
		})

		It("should reject a short password", func() {
			Expect(validation.ValidatePassword("short")).NotTo(BeNil())
		})

		It("should reject a password over the bcrypt input limit", func() {
			long := make([]byte, 80)
			for i := range long {
				long[i] = 'a'
			}
			Expect(validation.ValidatePassword(string(long))).NotTo(BeNil())
		})
	})

	Describe("ValidateName", func() {
		It("should accept an empty name", func() {
			Expect(validation.ValidateName("first_name", "")).To(BeNil())
		})

		It("should reject a name over 100 characters", func() {
			long := make([]byte, 101)
			for i := range long {
				long[i] = 'x'
			}
			Expect(validation.ValidateName("first_name", string(long))).NotTo(BeNil())
		})
	})
})

var _ = Describe("ValidationBuilder", func() {
	It("should collect errors across fields", func() {
		builder := validation.NewValidator()
		builder.Field("username", "").Required()
		builder.Field("email", "bogus").Email()

		err := builder.Validate()
		errs := fieldErrors(err)
		Expect(errs).To(HaveLen(2))
		Expect(errs[0].Field).To(Equal("username"))
		Expect(errs[1].Field).To(Equal("email"))
	})

	It("should return nil when every field passes", func() {
		builder := validation.NewValidator()
		builder.Field("username", "alice").Required().MinLength(4)
		Expect(builder.Validate()).To(BeNil())
	})

	It("should run custom validators", func() {
		builder := validation.NewValidator()
		builder.Field("code", "abc").Custom(func(value interface{}) *apperrors.AppError {
			if value.(string) != "expected" {
				return apperrors.NewValidationFieldError("code", "code mismatch", apperrors.ErrCodeValidationFailed)
			}
			return nil
		})

		err := builder.Validate()
		errs := fieldErrors(err)
		Expect(errs[0].Message).To(Equal("code mismatch"))
	})
})
