package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careops/substitute-planner/pkg/core/model"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func distance(emp, school string, meters float64) RawDistance {
	return RawDistance{
		Employee:           Ref{ID: emp},
		School:             Ref{ID: school},
		StraightLineMeters: floatPtr(meters),
	}
}

// A Friday, so timetable lookups use "freitag".
var testDate = time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)

func testRawClient(id, school string) RawClient {
	return RawClient{
		ID:     id,
		School: &Ref{ID: school},
		Timetable: map[string]*string{
			"freitagvon": strPtr("08:00:00"),
			"freitagbis": strPtr("13:30:00"),
		},
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    float64
		wantErr bool
	}{
		{name: "morning", value: "08:30:00", want: 8.5},
		{name: "afternoon", value: "13:15:00", want: 13.25},
		{name: "midnight", value: "00:00:00", want: 0},
		{name: "seconds ignored", value: "09:00:59", want: 9},
		{name: "missing seconds", value: "08:30", wantErr: true},
		{name: "garbage", value: "later", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertPriority(t *testing.T) {
	assert.Equal(t, model.PriorityHigh, convertPriority(&Ref{ID: "tag1hoheprio"}))
	assert.Equal(t, model.PriorityMedium, convertPriority(&Ref{ID: "tag1"}))
	assert.Equal(t, model.PriorityLow, convertPriority(&Ref{ID: "tag9"}))
	assert.Equal(t, model.PriorityLow, convertPriority(nil))
}

func TestCommuteMinutes(t *testing.T) {
	distances := []RawDistance{
		distance("E1", "S1", 12500),   // 12 minutes
		distance("E1", "S2", 60000),   // exactly at cutoff, dropped
		distance("E1", "S3", 400),     // floored to 1 minute
		distance("E1", "S1", 99999),   // duplicate, first record wins
		distance("E2", "S1", 5000),    // other employee
	}
	schools := map[string]bool{"S1": true, "S2": true, "S3": true}

	b := NewBuilder(distances, nil, zap.NewNop())
	commute := b.commuteMinutes("E1", schools)

	assert.Equal(t, map[string]int{"S1": 12, "S3": 1}, commute)
}

func TestCommuteMinutes_NilMeters(t *testing.T) {
	distances := []RawDistance{
		{Employee: Ref{ID: "E1"}, School: Ref{ID: "S1"}},
	}
	b := NewBuilder(distances, nil, zap.NewNop())
	assert.Empty(t, b.commuteMinutes("E1", map[string]bool{"S1": true}))
}

func TestBuildDay_DropsEmployeeWithoutReachableSchool(t *testing.T) {
	rawEmployees := []RawEmployee{
		{ID: "E1"},
		{ID: "E2"},
	}
	rawClients := []RawClient{testRawClient("C1", "S1")}
	distances := []RawDistance{
		distance("E1", "S1", 10000),
		// E2 only has a distance record beyond the cutoff
		distance("E2", "S1", 80000),
	}

	b := NewBuilder(distances, nil, zap.NewNop())
	employees, clients, err := b.BuildDay(rawEmployees, rawClients, nil, testDate)
	require.NoError(t, err)

	require.Len(t, employees, 1)
	assert.Equal(t, "E1", employees[0].ID)
	require.Len(t, clients, 1)
}

func TestBuildDay_EmployeeFeatures(t *testing.T) {
	rawEmployees := []RawEmployee{
		{
			ID:              "E1",
			CanDiabetes:     1,
			TimeRestriction: strPtr("14:30:00"),
		},
	}
	rawClients := []RawClient{testRawClient("C1", "S1")}
	distances := []RawDistance{distance("E1", "S1", 10000)}
	experience := []RawExperience{
		{
			Employee:       "E1",
			ClientSessions: map[string][]string{"C1": {"2026-01-10", "2026-02-11"}, "gone": {"2026-01-01"}},
			SchoolSessions: map[string][]string{"S1": {"2026-01-10"}, "S9": {"2026-01-02"}},
		},
	}

	b := NewBuilder(distances, experience, zap.NewNop())
	employees, _, err := b.BuildDay(rawEmployees, rawClients, nil, testDate)
	require.NoError(t, err)
	require.Len(t, employees, 1)

	e := employees[0]
	assert.Equal(t, []model.Qualification{model.QualificationDiabetes}, e.Qualifications)
	assert.Equal(t, model.TimeInterval{Start: 0, End: 14.5}, e.Availability)
	// Experience is restricted to the day's clients and schools.
	assert.Equal(t, map[string]int{"C1": 2}, e.ClientExperience)
	assert.Equal(t, map[string]int{"S1": 1}, e.SchoolExperience)
	assert.Nil(t, e.AvailableUntil)
}

func TestBuildDay_FullDayWithoutRestriction(t *testing.T) {
	rawEmployees := []RawEmployee{{ID: "E1"}}
	rawClients := []RawClient{testRawClient("C1", "S1")}
	distances := []RawDistance{distance("E1", "S1", 10000)}

	b := NewBuilder(distances, nil, zap.NewNop())
	employees, _, err := b.BuildDay(rawEmployees, rawClients, nil, testDate)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, model.FullDay, employees[0].Availability)
}

func TestBuildDay_ClientFeatures(t *testing.T) {
	rawClients := []RawClient{
		{
			ID:              "C1",
			NeedsNursing:    1,
			School:          &Ref{ID: "S1"},
			SubstitutionTag: &Ref{ID: "tag1hoheprio"},
			Timetable: map[string]*string{
				"freitagvon": strPtr("08:00:00"),
				"freitagbis": strPtr("12:00:00"),
			},
		},
		{
			ID:     "C2",
			School: &Ref{ID: "S2"},
			// No session on Fridays
			Timetable: map[string]*string{
				"montagvon": strPtr("08:00:00"),
				"montagbis": strPtr("12:00:00"),
			},
		},
	}
	subs := []RawSubstitution{
		{
			ID:            "V1",
			Type:          "mabw",
			StartDate:     "2026-09-01",
			EndDate:       "2026-09-12",
			ClientToCover: &Ref{ID: "C1"},
		},
	}

	b := NewBuilder(nil, nil, zap.NewNop())
	_, clients, err := b.BuildDay(nil, rawClients, subs, testDate)
	require.NoError(t, err)
	require.Len(t, clients, 2)

	c1 := clients[0]
	assert.Equal(t, []model.Qualification{model.QualificationNursing}, c1.NeededQualifications)
	require.NotNil(t, c1.TimeWindow)
	assert.Equal(t, model.TimeInterval{Start: 8, End: 12}, *c1.TimeWindow)
	assert.Equal(t, model.PriorityHigh, c1.Priority)
	assert.Equal(t, "S1", c1.School)
	require.NotNil(t, c1.AvailableUntil)
	assert.Equal(t, "2026-09-12", c1.AvailableUntil.Format("2006-01-02"))

	c2 := clients[1]
	assert.Nil(t, c2.TimeWindow)
	assert.Equal(t, model.PriorityLow, c2.Priority)
	assert.Nil(t, c2.AvailableUntil)
}

func TestBuildDay_MalformedTimetableFailsFast(t *testing.T) {
	rawClients := []RawClient{
		{
			ID:     "C1",
			School: &Ref{ID: "S1"},
			Timetable: map[string]*string{
				"freitagvon": strPtr("not a time"),
				"freitagbis": strPtr("12:00:00"),
			},
		},
	}

	b := NewBuilder(nil, nil, zap.NewNop())
	_, _, err := b.BuildDay(nil, rawClients, nil, testDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "C1")
}

func TestBuildDay_StartWithoutEndFails(t *testing.T) {
	rawClients := []RawClient{
		{
			ID:     "C1",
			School: &Ref{ID: "S1"},
			Timetable: map[string]*string{
				"freitagvon": strPtr("08:00:00"),
			},
		},
	}

	b := NewBuilder(nil, nil, zap.NewNop())
	_, _, err := b.BuildDay(nil, rawClients, nil, testDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "freitagbis")
}

func TestActiveOn(t *testing.T) {
	subs := []RawSubstitution{
		{ID: "V1", Type: "mabw", StartDate: "2026-09-01", EndDate: "2026-09-10"},
		{ID: "V2", Type: "mabw", StartDate: "2026-09-04", EndDate: "2026-09-04"},
		{ID: "V3", Type: "mabw", StartDate: "2026-09-05", EndDate: "2026-09-10"},
		{ID: "V4", Type: "mabw", StartDate: "2026-08-01", EndDate: "2026-09-03"},
	}

	active, err := ActiveOn(subs, testDate)
	require.NoError(t, err)

	ids := make([]string, len(active))
	for i, s := range active {
		ids[i] = s.ID
	}
	// Inclusive on both ends: V1 spans the date, V2 is exactly the date.
	assert.Equal(t, []string{"V1", "V2"}, ids)
}

func TestActiveOn_MalformedDate(t *testing.T) {
	subs := []RawSubstitution{
		{ID: "V1", StartDate: "01.09.2026", EndDate: "2026-09-10"},
	}
	_, err := ActiveOn(subs, testDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "V1")
}

func TestOpenRecords(t *testing.T) {
	subs := []RawSubstitution{
		{ID: "V1", Type: "mabw", ClientToCover: &Ref{ID: "C1"}, CoveringEmployee: &Ref{ID: "E1"}},
		{ID: "V2", Type: "mabw", ClientToCover: &Ref{ID: "C2"}},
		{ID: "V3", Type: "urlaub", ClientToCover: &Ref{ID: "C3"}},
		{ID: "V4", Type: "mabw", CoveringEmployee: &Ref{ID: "E2"}},
	}

	clientIDs, employeeIDs := OpenRecords(subs)
	assert.Equal(t, []string{"C1", "C2"}, clientIDs)
	assert.Equal(t, []string{"E1", "E2"}, employeeIDs)
}
