package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CMD Suite")
}

var _ = Describe("loadConfig", func() {
	It("reads the bundled config.yml", func() {
		cfg, err := loadConfig("..")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Database.Driver).To(Equal(internal.DriverMongo))
		Expect(cfg.Security.TokenTTL).To(Equal(1200 * time.Hour))
		Expect(cfg.Attendance.Timezone).To(Equal("Asia/Kolkata"))
		Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
	})

	It("lets ENV_ variables override file values", func() {
		Expect(os.Setenv("ENV_DATABASE_DRIVER", "postgres")).To(Succeed())
		DeferCleanup(os.Unsetenv, "ENV_DATABASE_DRIVER")

		cfg, err := loadConfig("..")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Database.Driver).To(Equal(internal.DriverPostgres))
	})

	It("rejects invalid configuration", func() {
		dir := GinkgoT().TempDir()
		body := []byte("http_server:\n  port: 8080\ndatabase:\n  driver: mongo\n  mongo_uri: mongodb://localhost\n  mongo_database: ams\nsecurity:\n  jwt_secret: short\n")
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), body, 0o600)).To(Succeed())

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("JWTSecret")))
	})

	It("fills unset values from the defaults", func() {
		dir := GinkgoT().TempDir()
		body := []byte("security:\n  jwt_secret: a-sufficiently-long-secret\n")
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), body, 0o600)).To(Succeed())

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Port).To(Equal(8080))
		Expect(cfg.Database.QueryTimeout).To(Equal(5 * time.Second))
		Expect(cfg.Security.BCryptCost).To(Equal(10))
	})
})
