package console

import (
	"strings"

	"github.com/douremember/go-admin-console/client"
)

// StatusFilterAll matches every status; the literal status strings filter
// to that status alone.
const StatusFilterAll = "todos"

// RoleFilterAll matches every role.
const RoleFilterAll = "todos"

// DirectoryFilter describes a projection over a fetched user list. The
// zero value is the identity projection.
type DirectoryFilter struct {
	// Query matches case-insensitively as a substring of name and email;
	// when MatchRole is set, of the role as well.
	Query string
	// Status is StatusFilterAll, StatusActive or StatusInactive.
	Status string
	// Role is RoleFilterAll or a concrete role (general user table only).
	Role string
	// MatchRole extends the free-text search to the role column.
	MatchRole bool
}

// DirectoryStats are the headline counts shown above the tables. They are
// computed over the unfiltered list.
type DirectoryStats struct {
	Total      int
	Active     int
	Inactive   int
	Doctors    int
	Patients   int
	Caregivers int
}

// FilterUsers recomputes the derived view over the full in-memory list.
// Pure and synchronous: O(n) per call, no indexes, no side effects, so
// applying the same filter twice yields the same result.
func FilterUsers(users []client.User, filter DirectoryFilter) []client.User {
	filtered := make([]client.User, 0, len(users))

	query := strings.ToLower(strings.TrimSpace(filter.Query))

	for _, user := range users {
		if query != "" && !matchesQuery(user, query, filter.MatchRole) {
			continue
		}
		if filter.Status != "" && filter.Status != StatusFilterAll && user.Status != filter.Status {
			continue
		}
		if filter.Role != "" && filter.Role != RoleFilterAll && user.Role != filter.Role {
			continue
		}
		filtered = append(filtered, user)
	}

	return filtered
}

func matchesQuery(user client.User, query string, matchRole bool) bool {
	if strings.Contains(strings.ToLower(user.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(user.Email), query) {
		return true
	}
	if matchRole && strings.Contains(strings.ToLower(user.Role), query) {
		return true
	}
	return false
}

// Stats computes the headline counts over the full list.
func Stats(users []client.User) DirectoryStats {
	stats := DirectoryStats{Total: len(users)}
	for _, user := range users {
		switch user.Status {
		case client.StatusActive:
			stats.Active++
		case client.StatusInactive:
			stats.Inactive++
		}
		switch user.Role {
		case RoleDoctor:
			stats.Doctors++
		case RolePatient:
			stats.Patients++
		case RoleCaregiver:
			stats.Caregivers++
		}
	}
	return stats
}
