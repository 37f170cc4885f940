package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/haken-contracts/internal/model"
)

// postgresStatements add constraints AutoMigrate cannot express.
var postgresStatements = []string{
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'ck_contract_client_period') THEN
			ALTER TABLE apps_contract_client
				ADD CONSTRAINT ck_contract_client_period CHECK (end_date IS NULL OR start_date <= end_date);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'ck_contract_staff_period') THEN
			ALTER TABLE apps_contract_staff
				ADD CONSTRAINT ck_contract_staff_period CHECK (end_date IS NULL OR start_date <= end_date);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'ck_contract_number_monotone') THEN
			ALTER TABLE apps_contract_client_number
				ADD CONSTRAINT ck_contract_number_monotone CHECK (last_number >= 0);
			ALTER TABLE apps_contract_staff_number
				ADD CONSTRAINT ck_staff_number_monotone CHECK (last_number >= 0);
		END IF;
	END
	$$;`,
	`CREATE INDEX IF NOT EXISTS idx_contract_client_tenant_client ON apps_contract_client (tenant_id, client_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_staff_tenant_staff ON apps_contract_staff (tenant_id, staff_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_client_number ON apps_contract_client (tenant_id, contract_number) WHERE contract_number IS NOT NULL;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_staff_number ON apps_contract_staff (tenant_id, contract_number) WHERE contract_number IS NOT NULL;`,
}

// Migrate creates or updates every table. Dialect-specific statements run
// only on PostgreSQL.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if database.Dialector.Name() != "postgres" {
		return nil
	}
	for i, stmt := range postgresStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
