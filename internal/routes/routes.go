package routes

const (
	Health = "/api/health"

	// Auth
	AuthRegister = "/api/auth/register"
	AuthLogin    = "/api/auth/login"
	AuthLogout   = "/api/auth/logout"

	// Users
	Users    = "/api/users"
	UsersMe  = "/api/users/me"
	UserByID = "/api/users/{id}"

	// Units
	Units          = "/api/units"
	UnitsAvailable = "/api/units/available"
	UnitsSearch    = "/api/units/search"
	UnitsMy        = "/api/units/my"
	UnitByID       = "/api/units/{unitID}"
	UnitFeatures   = "/api/units/{unitID}/features"
	UnitFeature    = "/api/units/{unitID}/features/{featureType}"
	UnitRentals    = "/api/units/{unitID}/rentals"

	// Rentals
	Rentals           = "/api/rentals"
	RentalsMy         = "/api/rentals/my"
	RentalsExpiring   = "/api/rentals/expiring"
	RentalsStatistics = "/api/rentals/statistics"
	RentalByID        = "/api/rentals/{id}"
	RentalTerminate   = "/api/rentals/{id}/terminate"
	RentalExtend      = "/api/rentals/{id}/extend"
	RentalShare       = "/api/rentals/{id}/share"
	RentalUnshare     = "/api/rentals/{id}/share/{email}"
)
