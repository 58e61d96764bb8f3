package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeependraDeveloper/AMS-BACKEND/internal"
	attendanceMongo "github.com/DeependraDeveloper/AMS-BACKEND/internal/attendance/mongodb"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/leave"
	leaveMongo "github.com/DeependraDeveloper/AMS-BACKEND/internal/leave/mongodb"
	"github.com/DeependraDeveloper/AMS-BACKEND/internal/user"
	userMongo "github.com/DeependraDeveloper/AMS-BACKEND/internal/user/mongodb"
	"github.com/DeependraDeveloper/AMS-BACKEND/pkg/database"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo organization, its admin and employees for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lg := setupLogger(cfg)

		if clearData {
			if err := clearDatabase(ctx, cfg.Database); err != nil {
				return fmt.Errorf("failed to clear data: %w", err)
			}
			lg.Info("existing data cleared")
		}

		app, err := newApp(ctx, cfg, lg)
		if err != nil {
			return fmt.Errorf("failed to init app: %w", err)
		}
		defer app.Close(context.Background())

		admin, err := app.Users.Register(ctx, user.RegisterDTO{
			Name:         "Asha Admin",
			Email:        "admin@acme.test",
			Password:     seedPassword,
			Phone:        "9000000001",
			Role:         user.RoleAdmin,
			Department:   "HR",
			Designation:  "Manager",
			Organization: "Acme",
		})
		if err != nil {
			if errors.Is(err, internal.ErrOrganizationTaken) || errors.Is(err, internal.ErrPhoneTaken) || errors.Is(err, internal.ErrEmailTaken) {
				lg.Info("demo organization already seeded")
				return nil
			}
			return fmt.Errorf("failed to seed admin: %w", err)
		}
		fmt.Println("Seeded admin user:", admin.Email)

		employees := []user.AddUserDTO{
			{Name: "Ravi Kumar", Email: "ravi@acme.test", Phone: "9000000002", Department: "IT", Designation: "Developer"},
			{Name: "Meera Nair", Email: "meera@acme.test", Phone: "9000000003", Department: "Design", Designation: "Designer"},
			{Name: "Kabir Shah", Email: "kabir@acme.test", Phone: "9000000004", Department: "Sales", Designation: "Team Lead"},
		}
		for _, dto := range employees {
			dto.AnchorID = admin.ID
			dto.Password = seedPassword
			u, err := app.Users.AddUser(ctx, dto)
			if err != nil {
				return fmt.Errorf("failed to seed employee %s: %w", dto.Email, err)
			}
			fmt.Printf("Seeded employee: %s (roll no %d)\n", u.Email, u.RollNo)

			today := app.Clock.Now()
			if _, err := app.Leave.Submit(ctx, leave.SubmitDTO{
				LeaveType:   "Casual",
				LeaveReason: "Family function",
				LeaveFrom:   today.AddDate(0, 0, 7).Format("2006-01-02"),
				LeaveTo:     today.AddDate(0, 0, 8).Format("2006-01-02"),
				UserID:      u.ID,
			}); err != nil {
				return fmt.Errorf("failed to seed leave for %s: %w", dto.Email, err)
			}
		}

		fmt.Printf("All seeded users share the password %q\n", seedPassword)
		return app.Bus.Drain(ctx)
	},
}

// clearDatabase empties every table or collection the service owns.
func clearDatabase(ctx context.Context, cfg internal.DatabaseConfig) error {
	if cfg.Driver == internal.DriverMongo {
		db, err := connectMongo(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())
		for _, name := range []string{
			userMongo.UsersCollection,
			userMongo.CountersCollection,
			attendanceMongo.AttendanceCollection,
			leaveMongo.LeavesCollection,
		} {
			if err := db.Collection(name).Drop(ctx); err != nil {
				return fmt.Errorf("drop %s: %w", name, err)
			}
		}
		return nil
	}

	sqlDB, gormDB, err := database.OpenPostgres(cfg.GetDSN(), database.PostgresOptions{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return gormDB.WithContext(ctx).Exec("TRUNCATE leaves, attendance, counters, users").Error
}
