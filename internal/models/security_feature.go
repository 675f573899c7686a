package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SecurityFeatureType string

const (
	FeatureBasic     SecurityFeatureType = "BASIC"
	FeatureCCTV      SecurityFeatureType = "CCTV"
	FeatureGuards    SecurityFeatureType = "GUARDS"
	FeatureBiometric SecurityFeatureType = "BIOMETRIC"
	FeatureMotion    SecurityFeatureType = "MOTION"
	FeatureAlarm     SecurityFeatureType = "ALARM"
	FeatureFire      SecurityFeatureType = "FIRE"
	FeatureAccess    SecurityFeatureType = "ACCESS"
)

var featureDisplayNames = map[SecurityFeatureType]string{
	FeatureBasic:     "Basic Lock and Key",
	FeatureCCTV:      "CCTV Surveillance",
	FeatureGuards:    "24/7 Security Guards",
	FeatureBiometric: "Biometric Access",
	FeatureMotion:    "Motion Sensors",
	FeatureAlarm:     "Individual Alarms",
	FeatureFire:      "Fire Detection System",
	FeatureAccess:    "Access Control System",
}

// DisplayName returns the human-readable name for the feature type.
func (t SecurityFeatureType) DisplayName() string {
	if name, ok := featureDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

func ParseSecurityFeatureType(s string) (SecurityFeatureType, error) {
	if _, ok := featureDisplayNames[SecurityFeatureType(s)]; !ok {
		return "", fmt.Errorf("invalid security feature type %q: %w", s, ErrInvalidEnum)
	}
	return SecurityFeatureType(s), nil
}

// SecurityFeature is a protective attribute attached to exactly one unit.
// Every unit carries BASIC permanently; it can never be removed.
type SecurityFeature struct {
	ID          uuid.UUID           `json:"id"`
	UnitID      string              `json:"unit_id"`
	FeatureType SecurityFeatureType `json:"feature_type"`
	Notes       *string             `json:"notes,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}
