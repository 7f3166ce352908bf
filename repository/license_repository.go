package repository

import (
	"database/sql"
	"fmt"
	"time"

	"CortexFM/logger"
	"CortexFM/model"

	"github.com/google/uuid"
)

// LicenseRepository defines the interface for license reference data.
// Licenses are pre-seeded and read-only from the pipeline's perspective.
type LicenseRepository interface {
	GetLicenseByShortCode(shortCode string) (*model.License, error)
	ListLicenses() ([]*model.License, error)
	SeedDefaultLicenses() (int, error)
}

// mysqlLicenseRepository implements LicenseRepository for MySQL.
type mysqlLicenseRepository struct {
	db *sql.DB
}

// NewMySQLLicenseRepository creates a new mysqlLicenseRepository.
func NewMySQLLicenseRepository(db *sql.DB) LicenseRepository {
	return &mysqlLicenseRepository{db: db}
}

const licenseColumns = `id, short_code, full_name, url, allows_commercial, allows_derivatives,
	requires_attribution, requires_share_alike, is_active, usage_count, description, created_at, updated_at`

func scanLicense(row rowScanner) (*model.License, error) {
	lic := &model.License{}
	err := row.Scan(
		&lic.ID, &lic.ShortCode, &lic.FullName, &lic.URL,
		&lic.AllowsCommercial, &lic.AllowsDerivatives,
		&lic.RequiresAttribution, &lic.RequiresShareAlike,
		&lic.IsActive, &lic.UsageCount, &lic.Description,
		&lic.CreatedAt, &lic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lic, nil
}

// GetLicenseByShortCode retrieves a license by its unique short code.
// Returns (nil, nil) when absent.
func (r *mysqlLicenseRepository) GetLicenseByShortCode(shortCode string) (*model.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE short_code = ?`
	lic, err := scanLicense(r.db.QueryRow(query, shortCode))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan license by short code %s: %w", shortCode, err)
	}
	return lic, nil
}

// ListLicenses retrieves all licenses ordered by short code.
func (r *mysqlLicenseRepository) ListLicenses() ([]*model.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses ORDER BY short_code ASC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query licenses: %w", err)
	}
	defer rows.Close()

	licenses := make([]*model.License, 0)
	for rows.Next() {
		lic, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license row: %w", err)
		}
		licenses = append(licenses, lic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during license rows iteration: %w", err)
	}
	return licenses, nil
}

// defaultLicenses is the Creative Commons reference set. CC-BY-NC and
// CC-BY-NC-SA are seeded for completeness but are not in the ingest
// allow-list.
var defaultLicenses = []model.License{
	{
		ShortCode:           "CC0",
		FullName:            "CC0 1.0 Universal (CC0 1.0) Public Domain Dedication",
		URL:                 "https://creativecommons.org/publicdomain/zero/1.0/",
		AllowsCommercial:    true,
		AllowsDerivatives:   true,
		RequiresAttribution: false,
		RequiresShareAlike:  false,
		Description:         "The person has waived all copyright and related rights to the work",
	},
	{
		ShortCode:           "CC-BY",
		FullName:            "Attribution 4.0 International (CC BY 4.0)",
		URL:                 "https://creativecommons.org/licenses/by/4.0/",
		AllowsCommercial:    true,
		AllowsDerivatives:   true,
		RequiresAttribution: true,
		RequiresShareAlike:  false,
		Description:         "You must give appropriate credit, provide a link to the license, and indicate if changes were made",
	},
	{
		ShortCode:           "CC-BY-SA",
		FullName:            "Attribution-ShareAlike 4.0 International (CC BY-SA 4.0)",
		URL:                 "https://creativecommons.org/licenses/by-sa/4.0/",
		AllowsCommercial:    true,
		AllowsDerivatives:   true,
		RequiresAttribution: true,
		RequiresShareAlike:  true,
		Description:         "You must give credit and distribute your contributions under the same license as the original",
	},
	{
		ShortCode:           "CC-BY-NC",
		FullName:            "Attribution-NonCommercial 4.0 International (CC BY-NC 4.0)",
		URL:                 "https://creativecommons.org/licenses/by-nc/4.0/",
		AllowsCommercial:    false,
		AllowsDerivatives:   true,
		RequiresAttribution: true,
		RequiresShareAlike:  false,
		Description:         "You must give credit. NonCommercial use only",
	},
	{
		ShortCode:           "CC-BY-NC-SA",
		FullName:            "Attribution-NonCommercial-ShareAlike 4.0 International (CC BY-NC-SA 4.0)",
		URL:                 "https://creativecommons.org/licenses/by-nc-sa/4.0/",
		AllowsCommercial:    false,
		AllowsDerivatives:   true,
		RequiresAttribution: true,
		RequiresShareAlike:  true,
		Description:         "You must give credit, use for NonCommercial purposes, and distribute under same license",
	},
	{
		ShortCode:           "Public Domain",
		FullName:            "Public Domain (Pre-1924 or expired copyright)",
		URL:                 "https://en.wikipedia.org/wiki/Public_domain",
		AllowsCommercial:    true,
		AllowsDerivatives:   true,
		RequiresAttribution: false,
		RequiresShareAlike:  false,
		Description:         "No copyright restrictions apply. Work is in the public domain",
	},
}

// SeedDefaultLicenses inserts the reference license set, skipping rows whose
// short code already exists. Returns the number created; safe to re-run.
func (r *mysqlLicenseRepository) SeedDefaultLicenses() (int, error) {
	created := 0
	for _, lic := range defaultLicenses {
		existing, err := r.GetLicenseByShortCode(lic.ShortCode)
		if err != nil {
			return created, err
		}
		if existing != nil {
			logger.Debug("License already exists", logger.String("shortCode", lic.ShortCode))
			continue
		}

		now := time.Now()
		query := `INSERT INTO licenses (` + licenseColumns + `)
		           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`
		_, err = r.db.Exec(query,
			uuid.NewString(), lic.ShortCode, lic.FullName, lic.URL,
			lic.AllowsCommercial, lic.AllowsDerivatives,
			lic.RequiresAttribution, lic.RequiresShareAlike,
			true, lic.Description, now, now,
		)
		if err != nil {
			if IsDuplicateEntry(err) {
				continue
			}
			return created, fmt.Errorf("failed to insert license %s: %w", lic.ShortCode, err)
		}
		created++
		logger.Info("Created license", logger.String("shortCode", lic.ShortCode))
	}
	return created, nil
}
