package user_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
)

var _ = Describe("DuplicateFromMessage", func() {
	DescribeTable("names the clashing field",
		func(msg, field string) {
			dup := user.DuplicateFromMessage(msg)
			Expect(dup.Field).To(Equal(field))
			Expect(errors.Is(dup, user.ErrDuplicate)).To(BeTrue())
		},
		Entry("mongodb phone index",
			`E11000 duplicate key error collection: ams.users index: phone_1 dup key: { phone: 9876543210 }`, "phone"),
		Entry("mongodb email index",
			`E11000 duplicate key error collection: ams.users index: email_1 dup key: { email: "phone@acme.io" }`, "email"),
		Entry("mongodb roll number index",
			`E11000 duplicate key error collection: ams.users index: rollno_1 dup key: { rollno: 7 }`, "roll"),
		Entry("mongodb admin organization index",
			`E11000 duplicate key error collection: ams.users index: organization_admin dup key: { organization: "Acme" }`, "organization"),
		Entry("postgres constraint",
			`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`, "email"),
		Entry("postgres admin organization constraint",
			`ERROR: duplicate key value violates unique constraint "idx_users_organization_admin" (SQLSTATE 23505)`, "organization"),
		Entry("sqlite constraint", `UNIQUE constraint failed: users.phone`, "phone"),
		Entry("unrecognised message", `duplicate key`, "unknown"),
	)
})
