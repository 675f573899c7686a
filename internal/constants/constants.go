package constants

import (
	"time"

	"github.com/storably/storage-service/internal/models"
)

const (
	// Access tokens live 24h; blacklist rows are pruned once past this.
	AccessTokenTTL = 24 * time.Hour

	// Daily blacklist sweep at 03:10 UTC.
	TokenSweepCronSpec = "10 3 * * *"
	TokenSweepTimeout  = 2 * time.Minute

	// Shortest rental agreement a unit may be listed for.
	MinRentalDurationDays = 30

	// Unit IDs are sequential: UNIT-001, UNIT-002, ...
	UnitIDPrefix = "UNIT-"

	// A billing month for total-cost purposes.
	DaysPerBillingMonth = 30.0

	// Window used for the upcoming-expirations report.
	ExpirationWindowDays = 30
)

// FeatureRatePremiums maps each security feature to the fraction it adds
// on top of a unit's base rate. Premiums sum and apply multiplicatively:
// monthly_rate = base_rate * (1 + sum of premiums).
var FeatureRatePremiums = map[models.SecurityFeatureType]float64{
	models.FeatureBasic:     0,
	models.FeatureFire:      0,
	models.FeatureAlarm:     0.05,
	models.FeatureMotion:    0.05,
	models.FeatureCCTV:      0.10,
	models.FeatureAccess:    0.10,
	models.FeatureGuards:    0.15,
	models.FeatureBiometric: 0.15,
}
