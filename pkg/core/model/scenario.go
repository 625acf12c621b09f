package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Scenario describes one optimizer input: the planning date plus the
// employees and clients that are additionally unavailable, and optionally one
// pair whose assignment should be forced for evaluation.
type Scenario struct {
	Date                 time.Time `json:"date"`
	UnavailableEmployees []string  `json:"unavailable_mas,omitempty"`
	UnavailableClients   []string  `json:"unavailable_clients,omitempty"`
	ForcedEmployee       string    `json:"forced_ma,omitempty"`
	ForcedClient         string    `json:"forced_client,omitempty"`
}

// Key derives the deterministic memoization key for the scenario. Two calls
// with identical scenarios hash to the same key regardless of id order.
func (s Scenario) Key() string {
	emps := append([]string(nil), s.UnavailableEmployees...)
	clients := append([]string(nil), s.UnavailableClients...)
	sort.Strings(emps)
	sort.Strings(clients)

	canonical := fmt.Sprintf("date: %s, unavailable_clients: [%s], unavailable_mas: [%s], forced_ma: %s, forced_client: %s",
		s.Date.Format("2006-01-02"),
		strings.Join(clients, ","),
		strings.Join(emps, ","),
		s.ForcedEmployee,
		s.ForcedClient,
	)

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// WithUnavailable returns a copy of the scenario with one more unavailable
// employee and client. The receiver is not modified.
func (s Scenario) WithUnavailable(employeeID, clientID string) Scenario {
	next := s
	next.UnavailableEmployees = append(append([]string(nil), s.UnavailableEmployees...), employeeID)
	next.UnavailableClients = append(append([]string(nil), s.UnavailableClients...), clientID)
	return next
}
