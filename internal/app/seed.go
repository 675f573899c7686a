package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/storably/storage-service/internal/models"
	"github.com/storably/storage-service/internal/repositories"
	"github.com/storably/storage-service/internal/services"
	"github.com/storably/storage-service/internal/utils"
)

// Fixture identities. Stable UUIDs keep reseeding idempotent across
// restarts.
const (
	SeedOwnerID    = "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaa1"
	SeedTenantID   = "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaa2"
	SeedOwnerEmail = "owner@storably.dev"
	SeedTenantMail = "tenant@storably.dev"
	SeedPassword   = "changeme-storably"
)

// SeedDemoData loads a small fixture set for local development. The
// owner account doubles as the idempotency sentinel: if it exists, the
// data is assumed present and seeding is skipped.
func SeedDemoData(
	ctx context.Context,
	userRepo repositories.UserRepository,
	unitRepo repositories.UnitRepository,
	featRepo repositories.SecurityFeatureRepository,
) error {
	existing, err := userRepo.GetByEmail(ctx, SeedOwnerEmail)
	if err != nil {
		return fmt.Errorf("check seed sentinel: %w", err)
	}
	if existing != nil {
		utils.Logger.Info("storage-service: Seed data already present; skipping seeding.")
		return nil
	}

	hash, err := utils.HashPassword(SeedPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	owner := &models.User{
		ID:           uuid.MustParse(SeedOwnerID),
		Name:         "Olga",
		Surname:      "Ferreira",
		Email:        SeedOwnerEmail,
		PasswordHash: hash,
	}
	tenant := &models.User{
		ID:           uuid.MustParse(SeedTenantID),
		Name:         "Tomas",
		Surname:      "Keller",
		Email:        SeedTenantMail,
		PasswordHash: hash,
	}
	for _, u := range []*models.User{owner, tenant} {
		if err := userRepo.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	type seedUnit struct {
		name, country, city string
		sizeSqm, baseRate   float64
		floorLevel          string
		climate             bool
		features            []models.SecurityFeatureType
	}
	seedUnits := []seedUnit{
		{
			name: "Harbour Lockup", country: "Portugal", city: "Lisbon",
			sizeSqm: 12, baseRate: 80, floorLevel: "ground", climate: false,
			features: []models.SecurityFeatureType{models.FeatureCCTV},
		},
		{
			name: "Old Town Vault", country: "Portugal", city: "Porto",
			sizeSqm: 25, baseRate: 140, floorLevel: "basement", climate: true,
			features: []models.SecurityFeatureType{models.FeatureCCTV, models.FeatureBiometric},
		},
		{
			name: "Riverside Box", country: "Germany", city: "Berlin",
			sizeSqm: 8, baseRate: 60, floorLevel: "2", climate: false,
			features: nil,
		},
	}

	for _, su := range seedUnits {
		unitID, err := unitRepo.NextUnitID(ctx)
		if err != nil {
			return fmt.Errorf("allocate seed unit id: %w", err)
		}

		featureTypes := append([]models.SecurityFeatureType{models.FeatureBasic}, su.features...)
		unit := &models.Unit{
			UnitID:             unitID,
			Name:               su.name,
			Country:            su.country,
			City:               su.city,
			AddressLink:        "https://maps.google.com/?q=" + su.city,
			Status:             models.UnitStatusVacant,
			SizeSqm:            su.sizeSqm,
			BaseRate:           su.baseRate,
			MonthlyRate:        services.ComputeMonthlyRate(su.baseRate, featureTypes),
			Currency:           "EUR",
			ClimateControlled:  su.climate,
			FloorLevel:         su.floorLevel,
			RentalDurationDays: 30,
			OwnerID:            owner.ID,
			SharedUserEmails:   []string{},
		}
		if err := unitRepo.Create(ctx, unit); err != nil {
			return fmt.Errorf("seed unit %s: %w", su.name, err)
		}

		features := make([]models.SecurityFeature, 0, len(featureTypes))
		for _, ft := range featureTypes {
			features = append(features, models.SecurityFeature{
				ID:          uuid.New(),
				UnitID:      unitID,
				FeatureType: ft,
			})
		}
		if err := featRepo.CreateMany(ctx, features); err != nil {
			return fmt.Errorf("seed features for %s: %w", su.name, err)
		}
	}

	utils.Logger.Info("storage-service: Seeding completed successfully.")
	return nil
}
