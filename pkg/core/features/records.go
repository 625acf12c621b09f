package features

// Raw record shapes as delivered by the record source. Field names mirror the
// upstream care-management export; the builder turns them into the typed
// model collections and nothing downstream of it touches raw records.

// Ref is a reference to another record by id
type Ref struct {
	ID string `json:"id"`
}

// RawEmployee is one caregiver record
type RawEmployee struct {
	ID          string  `json:"id"`
	CanDiabetes int     `json:"kanndiabetes"`
	CanNursing  int     `json:"kannpflege"`
	// TimeRestriction is the HH:MM:SS end of the employee's working window,
	// nil when the employee is available the whole day
	TimeRestriction *string `json:"zeitlicheeinschraenkung-uhrzeit"`
}

// RawClient is one client record. Timetable maps "<weekday>von"/"<weekday>bis"
// keys (montag..sonntag) to HH:MM:SS strings.
type RawClient struct {
	ID              string             `json:"id"`
	HasDiabetes     int                `json:"hatdiabetes"`
	NeedsNursing    int                `json:"brauchtpflege"`
	Timetable       map[string]*string `json:"aktuellerstundenplan"`
	SubstitutionTag *Ref               `json:"vertretungab"`
	School          *Ref               `json:"schule"`
}

// RawDistance is one straight-line distance measurement between an employee's
// home and a school, in meters
type RawDistance struct {
	Employee           Ref      `json:"mitarbeiterin"`
	School             Ref      `json:"schule"`
	StraightLineMeters *float64 `json:"einfachdistanzluft"`
}

// RawSubstitution is one substitution event. Type "mabw" marks an employee
// absence; such events carry the covering employee that becomes free and/or
// the client that needs covering, each valid between StartDate and EndDate.
type RawSubstitution struct {
	ID               string `json:"id"`
	Type             string `json:"typ"`
	StartDate        string `json:"startdatum"`
	EndDate          string `json:"enddatum"`
	CoveringEmployee *Ref   `json:"mavertretend"`
	ClientToCover    *Ref   `json:"klientzubegleiten"`
}

// RawExperience is one employee's historical session log: per client id and
// per school id the list of recorded session dates
type RawExperience struct {
	Employee       string              `json:"ma"`
	ClientSessions map[string][]string `json:"client_experience"`
	SchoolSessions map[string][]string `json:"school_experience"`
}

const substitutionTypeEmployeeAbsence = "mabw"

// OpenRecords extracts, from today's substitution events, the clients that
// need a substitute and the employees that are freed up to provide one.
func OpenRecords(subs []RawSubstitution) (clientIDs, employeeIDs []string) {
	for _, sub := range subs {
		if sub.Type != substitutionTypeEmployeeAbsence {
			continue
		}
		if sub.ClientToCover != nil {
			clientIDs = append(clientIDs, sub.ClientToCover.ID)
		}
		if sub.CoveringEmployee != nil {
			employeeIDs = append(employeeIDs, sub.CoveringEmployee.ID)
		}
	}
	return clientIDs, employeeIDs
}
