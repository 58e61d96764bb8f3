package validation_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/core/common/validation"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

var _ = Describe("ValidationBuilder", func() {
	Describe("Validate", func() {
		It("returns nil when every check passes", func() {
			v := validation.NewValidator()
			v.Field("name", "Asha").Required("Name is required")
			v.Field("email", "asha@example.com").Required("Email is required").Email("Invalid email.")
			v.Field("phone", int64(9876543210)).Required("Phone is required").Phone("Invalid phone number.")

			Expect(v.Validate()).To(BeNil())
		})

		It("stops at the first failing check in declaration order", func() {
			v := validation.NewValidator()
			v.Field("name", "").Required("Name is required")
			v.Field("email", "").Required("Email is required")

			err := v.Validate()
			Expect(err).NotTo(BeNil())
			Expect(err.Error()).To(Equal("Name is required"))
			Expect(err.GetDetailedMessage()).To(Equal("Name is required"))
		})

		It("checks shape only after presence", func() {
			v := validation.NewValidator()
			v.Field("email", "not-an-email").Required("Email is required").Email("Invalid email.")

			err := v.Validate()
			Expect(err).NotTo(BeNil())
			Expect(err.Error()).To(Equal("Invalid email."))
		})

		It("treats whitespace as missing", func() {
			v := validation.NewValidator()
			v.Field("name", "   ").Required("Name is required")

			Expect(v.Validate()).NotTo(BeNil())
		})

		It("skips OneOf for empty values", func() {
			v := validation.NewValidator()
			v.Field("role", "").OneOf(errors.ErrCodeInvalidRole, "admin", "employee")
			Expect(v.Validate()).To(BeNil())

			v = validation.NewValidator()
			v.Field("role", "owner").OneOf(errors.ErrCodeInvalidRole, "admin", "employee")
			err := v.Validate()
			Expect(err).NotTo(BeNil())
			Expect(err.Error()).To(ContainSubstring("role must be one of"))
		})

		It("reports mismatched values through Equals", func() {
			v := validation.NewValidator()
			v.Field("confirmPassword", "b").Equals("a", "Password and Confirm Password must be same.", errors.ErrCodePasswordMismatch)

			err := v.Validate()
			Expect(err).NotTo(BeNil())
			Expect(err.Error()).To(Equal("Password and Confirm Password must be same."))
		})
	})

	Describe("ValidateAll", func() {
		It("collects every failure", func() {
			v := validation.NewValidator()
			v.Field("name", "").Required("Name is required")
			v.Field("email", "x").Email("Invalid email.")

			err := v.ValidateAll()
			Expect(err).NotTo(BeNil())
			Expect(err.GetDetailedMessage()).To(Equal("Name is required; Invalid email."))
		})
	})

	DescribeTable("IsPhone",
		func(value interface{}, expected bool) {
			Expect(validation.IsPhone(value)).To(Equal(expected))
		},
		Entry("ten digit string", "9876543210", true),
		Entry("ten digit number", int64(6000000000), true),
		Entry("leading digit below six", "5876543210", false),
		Entry("too short", "98765", false),
		Entry("letters", "98765abcde", false),
		Entry("unsupported type", 3.5, false),
	)

	DescribeTable("IsEmail",
		func(value string, expected bool) {
			Expect(validation.IsEmail(value)).To(Equal(expected))
		},
		Entry("plain address", "hr@acme.io", true),
		Entry("missing domain dot", "hr@acme", false),
		Entry("missing at", "hr.acme.io", false),
	)
})
