package buildings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/thekingleo527/FrancoSphere-sub016/internal/workers"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/config"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/db/models"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/enums"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/logger"
	"github.com/thekingleo527/FrancoSphere-sub016/pkg/security"
)

// portfolio is the managed building set installed on first boot.
var portfolio = []models.Building{
	{Name: "12 West 18th Street", Address: "12 W 18th St, New York, NY 10011"},
	{Name: "29-31 East 20th Street", Address: "29-31 E 20th St, New York, NY 10003"},
	{Name: "36 Walker Street", Address: "36 Walker St, New York, NY 10013"},
	{Name: "41 Elizabeth Street", Address: "41 Elizabeth St, New York, NY 10013"},
	{Name: "68 Perry Street", Address: "68 Perry St, New York, NY 10014"},
	{Name: "104 Franklin Street", Address: "104 Franklin St, New York, NY 10013"},
	{Name: "112 West 18th Street", Address: "112 W 18th St, New York, NY 10011"},
	{Name: "117 West 17th Street", Address: "117 W 17th St, New York, NY 10011"},
	{Name: "123 1st Avenue", Address: "123 1st Ave, New York, NY 10003"},
	{Name: "131 Perry Street", Address: "131 Perry St, New York, NY 10014"},
	{Name: "135-139 West 17th Street", Address: "135-139 W 17th St, New York, NY 10011"},
	{Name: "136 West 17th Street", Address: "136 W 17th St, New York, NY 10011"},
	{Name: "138 West 17th Street", Address: "138 W 17th St, New York, NY 10011"},
	{Name: "Rubin Museum", Address: "150 W 17th St, New York, NY 10011"},
	{Name: "Stuyvesant Cove Park", Address: "E 20th St & FDR Drive, New York, NY 10009"},
}

// Seed installs the building portfolio and a bootstrap admin account on an
// empty database. It is idempotent: rows that already exist are left alone,
// so it is safe to run on every boot.
func Seed(ctx context.Context, client *db.Client, workerRepo *workers.Repository, cfg config.SeedConfig, pwCfg config.PasswordConfig, logg *logger.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	if err := seedBuildings(ctx, client, logg); err != nil {
		return err
	}
	return seedAdmin(ctx, client, workerRepo, cfg, pwCfg, logg)
}

func seedBuildings(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	created := 0
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range portfolio {
			building := portfolio[i]
			var existing models.Building
			err := tx.Where("name = ?", building.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("checking building %q: %w", building.Name, err)
			}

			building.IsActive = true
			if err := tx.Create(&building).Error; err != nil {
				return fmt.Errorf("seeding building %q: %w", building.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if created > 0 && logg != nil {
		logg.Info(logg.WithField(ctx, "count", created), "seeded buildings")
	}
	return nil
}

func seedAdmin(ctx context.Context, client *db.Client, workerRepo *workers.Repository, cfg config.SeedConfig, pwCfg config.PasswordConfig, logg *logger.Logger) error {
	_, err := workerRepo.FindByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("checking admin account: %w", err)
	}

	password := cfg.AdminPassword
	generated := false
	if password == "" {
		password, err = security.GenerateTempPassword(16)
		if err != nil {
			return fmt.Errorf("generating admin password: %w", err)
		}
		generated = true
	}

	hash, err := security.HashPassword(password, pwCfg)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	admin := &models.Worker{
		Name:         "Administrator",
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         enums.WorkerRoleAdmin,
		IsActive:     true,
	}
	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(admin).Error
	})
	if err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	if logg != nil {
		fields := map[string]any{"email": cfg.AdminEmail}
		if generated {
			// surfaced once at first boot so the operator can log in
			fields["temp_password"] = password
		}
		logg.Info(logg.WithFields(ctx, fields), "seeded admin account")
	}
	return nil
}
