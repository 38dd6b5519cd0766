package leagues

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	appdb "github.com/dmaskell/rackline/internal/db"
	"github.com/dmaskell/rackline/internal/events"
	"github.com/dmaskell/rackline/internal/schedule"
	"github.com/dmaskell/rackline/internal/testutil"
)

func setupLeaguesTest(t *testing.T, calendarEvents ...schedule.ExternalEvent) *appdb.DB {
	t.Helper()

	database := testutil.NewTestDB(t)

	store = nil
	registry = nil
	calendar = nil
	initOnce = sync.Once{}
	InitHandlers(database, schedule.NewMatchupRegistry(), events.NewCalendar(calendarEvents...))

	t.Cleanup(func() {
		store = nil
		registry = nil
		calendar = nil
		initOnce = sync.Once{}
	})

	return database
}

func createLeagueRow(t *testing.T, database *appdb.DB, seasonLength int) appdb.League {
	t.Helper()
	league, err := database.CreateLeague(context.Background(), appdb.League{
		Name:          "Tuesday 8-Ball",
		OperatorEmail: "ops@example.com",
		StartDate:     time.Date(2025, time.January, 7, 0, 0, 0, 0, time.UTC),
		SeasonLength:  seasonLength,
		BreakWeeks:    1,
	})
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	return league
}

func createTeams(t *testing.T, database *appdb.DB, leagueID int64, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		if _, err := database.CreateTeam(context.Background(), leagueID, fmt.Sprintf("Team %d", i+1), ""); err != nil {
			t.Fatalf("create team: %v", err)
		}
	}
}

func jsonRequest(method, target string, payload any) *http.Request {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = int64(body.Len())
	return req
}

func TestCreateLeague(t *testing.T) {
	setupLeaguesTest(t)

	req := jsonRequest(http.MethodPost, "/api/v1/leagues", map[string]any{
		"name":         "Tuesday 8-Ball",
		"startDate":    "2025-01-07",
		"seasonLength": 16,
	})
	rec := httptest.NewRecorder()
	HandleCreateLeague(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var league appdb.League
	if err := json.Unmarshal(rec.Body.Bytes(), &league); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if league.ID == 0 || league.BreakWeeks != schedule.DefaultSeasonEndBreakWeeks {
		t.Fatalf("league response mismatch: %+v", league)
	}
}

func TestCreateLeagueValidation(t *testing.T) {
	setupLeaguesTest(t)

	cases := []map[string]any{
		{"name": "", "startDate": "2025-01-07", "seasonLength": 16},
		{"name": "League", "startDate": "01/07/2025", "seasonLength": 16},
		{"name": "League", "startDate": "2025-01-07", "seasonLength": 0},
	}
	for idx, payload := range cases {
		rec := httptest.NewRecorder()
		HandleCreateLeague(rec, jsonRequest(http.MethodPost, "/api/v1/leagues", payload))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: status %d, want 400", idx, rec.Code)
		}
	}
}

func TestPreviewScheduleConcreteScenario(t *testing.T) {
	database := setupLeaguesTest(t, schedule.ExternalEvent{
		Date: time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC),
		Name: "State Qualifier",
		Type: schedule.EventChampionship,
	})
	league := createLeagueRow(t, database, 2)
	createTeams(t, database, league.ID, 4)
	if err := database.AddBlackoutDate(context.Background(), league.ID, time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("add blackout: %v", err)
	}

	req := jsonRequest(http.MethodPost, fmt.Sprintf("/api/v1/leagues/%d/schedule/preview", league.ID), nil)
	req.SetPathValue(leagueIDPathKey, fmt.Sprintf("%d", league.ID))
	rec := httptest.NewRecorder()
	HandlePreviewSchedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp schedulePreviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.TeamCount != 4 {
		t.Fatalf("team count %d, want 4", resp.TeamCount)
	}
	wantDates := []string{"2025-01-07", "2025-01-21", "2025-01-28", "2025-02-04"}
	wantTypes := []schedule.WeekType{schedule.WeekRegular, schedule.WeekRegular, schedule.WeekOff, schedule.WeekPlayoffs}
	if len(resp.Weeks) != len(wantDates) {
		t.Fatalf("got %d weeks, want %d", len(resp.Weeks), len(wantDates))
	}
	for idx, week := range resp.Weeks {
		if week.Date.Format("2006-01-02") != wantDates[idx] || week.Type != wantTypes[idx] {
			t.Fatalf("week %d: got %s %s, want %s %s", idx+1, week.Date.Format("2006-01-02"), week.Type, wantDates[idx], wantTypes[idx])
		}
	}

	// The Jan 9 championship sits 2 days after the Jan 7 league night.
	found := false
	for _, flag := range resp.Weeks[0].Conflicts {
		if flag.Type == schedule.ConflictChampionship {
			found = true
			if flag.Severity != schedule.SeverityMedium || flag.DaysAway != 2 {
				t.Fatalf("championship flag %+v, want medium/2", flag)
			}
		}
	}
	if !found {
		t.Fatalf("championship flag missing from week 1: %+v", resp.Weeks[0].Conflicts)
	}

	// Two regular weeks means two rows of pairings from the 4-team table.
	if len(resp.Pairings) != 2 {
		t.Fatalf("got %d pairing rows, want 2", len(resp.Pairings))
	}
	if len(resp.Pairings[0].Pairings) != 2 {
		t.Fatalf("4-team week should hold 2 pairings, got %d", len(resp.Pairings[0].Pairings))
	}
}

func TestPreviewFailsClosedForUnsupportedTeamCount(t *testing.T) {
	database := setupLeaguesTest(t)
	league := createLeagueRow(t, database, 2)
	createTeams(t, database, league.ID, 10)

	req := jsonRequest(http.MethodPost, fmt.Sprintf("/api/v1/leagues/%d/schedule/preview", league.ID), nil)
	req.SetPathValue(leagueIDPathKey, fmt.Sprintf("%d", league.ID))
	rec := httptest.NewRecorder()
	HandlePreviewSchedule(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", rec.Code)
	}
}

func TestPreviewRequiresTeams(t *testing.T) {
	database := setupLeaguesTest(t)
	league := createLeagueRow(t, database, 2)

	req := jsonRequest(http.MethodPost, fmt.Sprintf("/api/v1/leagues/%d/schedule/preview", league.ID), nil)
	req.SetPathValue(leagueIDPathKey, fmt.Sprintf("%d", league.ID))
	rec := httptest.NewRecorder()
	HandlePreviewSchedule(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestPreviewUnknownLeague(t *testing.T) {
	setupLeaguesTest(t)

	req := jsonRequest(http.MethodPost, "/api/v1/leagues/999/schedule/preview", nil)
	req.SetPathValue(leagueIDPathKey, "999")
	rec := httptest.NewRecorder()
	HandlePreviewSchedule(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestSaveAndGetSchedule(t *testing.T) {
	database := setupLeaguesTest(t)
	league := createLeagueRow(t, database, 4)
	createTeams(t, database, league.ID, 6)

	saveReq := jsonRequest(http.MethodPost, fmt.Sprintf("/api/v1/leagues/%d/schedule", league.ID), nil)
	saveReq.SetPathValue(leagueIDPathKey, fmt.Sprintf("%d", league.ID))
	saveRec := httptest.NewRecorder()
	HandleSaveSchedule(saveRec, saveReq)
	if saveRec.Code != http.StatusCreated {
		t.Fatalf("save status %d: %s", saveRec.Code, saveRec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/leagues/%d/schedule", league.ID), nil)
	getReq.SetPathValue(leagueIDPathKey, fmt.Sprintf("%d", league.ID))
	getRec := httptest.NewRecorder()
	HandleGetSchedule(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status %d: %s", getRec.Code, getRec.Body.String())
	}

	var resp struct {
		Weeks []schedule.WeekEntry `json:"weeks"`
	}
	if err := json.Unmarshal(getRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// 4 regular + 1 break + playoffs.
	if len(resp.Weeks) != 6 {
		t.Fatalf("got %d persisted weeks, want 6", len(resp.Weeks))
	}
}

func TestBlackoutEndpoints(t *testing.T) {
	database := setupLeaguesTest(t)
	league := createLeagueRow(t, database, 2)

	addReq := jsonRequest(http.MethodPost, fmt.Sprintf("/api/v1/leagues/%d/blackouts", league.ID), map[string]any{"date": "2025-01-14"})
	addReq.SetPathValue(leagueIDPathKey, fmt.Sprintf("%d", league.ID))
	addRec := httptest.NewRecorder()
	HandleAddBlackout(addRec, addReq)
	if addRec.Code != http.StatusOK {
		t.Fatalf("add status %d: %s", addRec.Code, addRec.Body.String())
	}

	var resp struct {
		BlackoutDates []string `json:"blackoutDates"`
	}
	if err := json.Unmarshal(addRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.BlackoutDates) != 1 || resp.BlackoutDates[0] != "2025-01-14" {
		t.Fatalf("blackout list mismatch: %v", resp.BlackoutDates)
	}

	removeReq := jsonRequest(http.MethodDelete, fmt.Sprintf("/api/v1/leagues/%d/blackouts", league.ID), map[string]any{"date": "2025-01-14"})
	removeReq.SetPathValue(leagueIDPathKey, fmt.Sprintf("%d", league.ID))
	removeRec := httptest.NewRecorder()
	HandleRemoveBlackout(removeRec, removeReq)
	if removeRec.Code != http.StatusOK {
		t.Fatalf("remove status %d: %s", removeRec.Code, removeRec.Body.String())
	}
	if err := json.Unmarshal(removeRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.BlackoutDates) != 0 {
		t.Fatalf("blackout list should be empty, got %v", resp.BlackoutDates)
	}
}
