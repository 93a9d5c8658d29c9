package dashboard

import (
	"github.com/paylinehq/adminctl/internal/agence"
	"github.com/paylinehq/adminctl/internal/userservice"
)

// Demo fallbacks for showcase environments running without live backends.
// Selected only under FallbackDemo; the zeros policy is the default so a
// real outage is never papered over with plausible numbers.

func demoClientStatistics() userservice.Statistics {
	return userservice.Statistics{
		TotalClients:   1247,
		ActiveClients:  1109,
		BlockedClients: 23,
		NewThisMonth:   86,
		TotalBalance:   4_821_530.75,
	}
}

func demoDashboardSummary() agence.DashboardSummary {
	return agence.DashboardSummary{
		TotalUsers:       58,
		ActiveSessions:   12,
		PendingDocuments: 17,
		TotalAgencies:    9,
		SystemStatus:     "UP",
	}
}

func demoUserStatistics() agence.UserStatistics {
	return agence.UserStatistics{
		TotalUsers:   58,
		ActiveUsers:  51,
		BlockedUsers: 4,
		AdminUsers:   6,
	}
}
