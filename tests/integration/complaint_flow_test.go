package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDB     *TestDB
	testServer *TestServer
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		panic("failed to set up test database: " + err.Error())
	}
	testDB = db

	server, err := SetupTestServer(ctx, testDB)
	if err != nil {
		testDB.Teardown(ctx)
		panic("failed to set up test server: " + err.Error())
	}
	testServer = server

	code := m.Run()

	testServer.Teardown()
	testDB.Teardown(ctx)
	os.Exit(code)
}

func resetState(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
	testServer.Email.Reset()
}

func TestComplaintLifecycle(t *testing.T) {
	resetState(t)
	ctx := context.Background()

	committeeEmail, committeePassword := TestStaff("committee")
	_, err := SeedStaff(ctx, testDB.Pool, committeeEmail, committeePassword, "Committee Member", "committee")
	require.NoError(t, err)

	takerEmail, takerPassword := TestStaff("action_taker")
	taker, err := SeedStaff(ctx, testDB.Pool, takerEmail, takerPassword, "Action Taker", "action_taker")
	require.NoError(t, err)

	// Anonymous submission.
	resp, err := testServer.Request(http.MethodPost, "/complaints", TestComplaintBody("High", "orange-kettle"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var receipt struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		PasscodeProtected bool   `json:"passcode_protected"`
	}
	require.NoError(t, ParseJSONResponse(resp, &receipt))
	assert.Regexp(t, `^CMP-[A-Z0-9]{8}$`, receipt.ID)
	assert.Equal(t, "Submitted", receipt.Status)
	assert.True(t, receipt.PasscodeProtected)

	committeeToken, _, err := testServer.Login(committeeEmail, committeePassword)
	require.NoError(t, err)

	// Committee sees the new complaint.
	resp, err = testServer.RequestWithAuth(http.MethodGet, "/complaints?status=Submitted", nil, committeeToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Complaints []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"complaints"`
		Total int `json:"total"`
	}
	require.NoError(t, ParseJSONResponse(resp, &listing))
	require.Len(t, listing.Complaints, 1)
	assert.Equal(t, receipt.ID, listing.Complaints[0].ID)

	// Assignment moves it to Under Review and notifies the assignee.
	resp, err = testServer.RequestWithAuth(http.MethodPost, "/complaints/"+receipt.ID+"/assign",
		map[string]string{"staff_id": taker.ID}, committeeToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	email := testServer.Email.LastEmail()
	require.NotNil(t, email)
	assert.Equal(t, takerEmail, email.To)
	assert.Equal(t, receipt.ID, email.Complaint)

	// The assignee works it to resolution with a public update on the way.
	takerToken, _, err := testServer.Login(takerEmail, takerPassword)
	require.NoError(t, err)

	resp, err = testServer.RequestWithAuth(http.MethodPost, "/complaints/"+receipt.ID+"/updates",
		map[string]string{"message": "Your report has been reviewed and an investigation is underway."}, takerToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = testServer.RequestWithAuth(http.MethodPut, "/complaints/"+receipt.ID+"/status",
		map[string]string{"status": "Resolved"}, takerToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The reporter tracks the outcome with ID plus passcode.
	resp, err = testServer.Request(http.MethodPost, "/track",
		map[string]string{"id": receipt.ID, "passcode": "orange-kettle"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tracked struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PublicUpdates []struct {
			Message string `json:"message"`
		} `json:"public_updates"`
	}
	require.NoError(t, ParseJSONResponse(resp, &tracked))
	assert.Equal(t, "Resolved", tracked.Status)
	require.Len(t, tracked.PublicUpdates, 1)
	assert.Contains(t, tracked.PublicUpdates[0].Message, "investigation is underway")

	// Every lifecycle mutation left an audit row.
	count, err := CountAuditEntries(ctx, testDB.Pool, receipt.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 3)
}

func TestTrackingRejectsWrongPasscode(t *testing.T) {
	resetState(t)
	ctx := context.Background()

	id, err := SeedComplaint(ctx, testDB.Pool, "Medium", "Discrimination", "Denied a promotion after reporting misconduct.", "correct-horse")
	require.NoError(t, err)

	resp, err := testServer.Request(http.MethodPost, "/track", map[string]string{"id": id, "passcode": "wrong-horse"})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp2, err := testServer.Request(http.MethodPost, "/track", map[string]string{"id": id})
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestStaffEndpointsRequireAuth(t *testing.T) {
	resetState(t)

	resp, err := testServer.Request(http.MethodGet, "/complaints", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeveloperCannotReadComplaints(t *testing.T) {
	resetState(t)
	ctx := context.Background()

	devEmail, devPassword := TestStaff("developer")
	_, err := SeedStaff(ctx, testDB.Pool, devEmail, devPassword, "Platform Dev", "developer")
	require.NoError(t, err)

	token, _, err := testServer.Login(devEmail, devPassword)
	require.NoError(t, err)

	resp, err := testServer.RequestWithAuth(http.MethodGet, "/complaints", nil, token)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestActionTakerCannotMutateUnassignedComplaint(t *testing.T) {
	resetState(t)
	ctx := context.Background()

	committeeEmail, committeePassword := TestStaff("committee")
	_, err := SeedStaff(ctx, testDB.Pool, committeeEmail, committeePassword, "Committee Member", "committee")
	require.NoError(t, err)

	takerAEmail, takerAPassword := TestStaff("action_taker")
	takerA, err := SeedStaff(ctx, testDB.Pool, takerAEmail, takerAPassword, "Taker A", "action_taker")
	require.NoError(t, err)

	takerBEmail, takerBPassword := TestStaff("action_taker")
	_, err = SeedStaff(ctx, testDB.Pool, takerBEmail, takerBPassword, "Taker B", "action_taker")
	require.NoError(t, err)

	id, err := SeedComplaint(ctx, testDB.Pool, "High", "Retaliation", "Removed from a project after filing a report.", "")
	require.NoError(t, err)

	committeeToken, _, err := testServer.Login(committeeEmail, committeePassword)
	require.NoError(t, err)
	resp, err := testServer.RequestWithAuth(http.MethodPost, "/complaints/"+id+"/assign",
		map[string]string{"staff_id": takerA.ID}, committeeToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	takerBToken, _, err := testServer.Login(takerBEmail, takerBPassword)
	require.NoError(t, err)

	resp, err = testServer.RequestWithAuth(http.MethodPut, "/complaints/"+id+"/status",
		map[string]string{"status": "Resolved"}, takerBToken)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = testServer.RequestWithAuth(http.MethodPost, "/complaints/"+id+"/notes",
		map[string]string{"message": "should not land"}, takerBToken)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The assignee is unaffected.
	takerAToken, _, err := testServer.Login(takerAEmail, takerAPassword)
	require.NoError(t, err)
	resp, err = testServer.RequestWithAuth(http.MethodPut, "/complaints/"+id+"/status",
		map[string]string{"status": "Working"}, takerAToken)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Dismissed complaints are closed outcomes: the dashboard counts them as
// resolved, not as pending work.
func TestDashboardStatsCountClosedOutcomes(t *testing.T) {
	resetState(t)
	ctx := context.Background()

	committeeEmail, committeePassword := TestStaff("committee")
	_, err := SeedStaff(ctx, testDB.Pool, committeeEmail, committeePassword, "Committee Member", "committee")
	require.NoError(t, err)

	statuses := []string{"Submitted", "Investigation", "Resolved", "Dismissed"}
	for _, status := range statuses {
		id, err := SeedComplaint(ctx, testDB.Pool, "Medium", "Harassment", "Unwelcome conduct reported for "+status+".", "")
		require.NoError(t, err)
		_, err = testDB.Pool.Exec(ctx, "UPDATE complaints SET status = $1 WHERE id = $2", status, id)
		require.NoError(t, err)
	}

	token, _, err := testServer.Login(committeeEmail, committeePassword)
	require.NoError(t, err)

	resp, err := testServer.RequestWithAuth(http.MethodGet, "/complaints/stats", nil, token)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Total    int64 `json:"total"`
		Open     int64 `json:"open"`
		Resolved int64 `json:"resolved"`
	}
	require.NoError(t, ParseJSONResponse(resp, &stats))
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Open)
	assert.Equal(t, int64(2), stats.Resolved)
}

// A public update lands together with the complaint's activity stamp, so a
// stale complaint posted to never sorts as if nothing happened.
func TestPublicUpdateBumpsComplaintActivity(t *testing.T) {
	resetState(t)
	ctx := context.Background()

	committeeEmail, committeePassword := TestStaff("committee")
	_, err := SeedStaff(ctx, testDB.Pool, committeeEmail, committeePassword, "Committee Member", "committee")
	require.NoError(t, err)

	id, err := SeedComplaint(ctx, testDB.Pool, "Medium", "Harassment", "Repeated unwelcome remarks from a supervisor.", "")
	require.NoError(t, err)

	backdated := time.Now().Add(-time.Hour)
	_, err = testDB.Pool.Exec(ctx, "UPDATE complaints SET updated_at = $1 WHERE id = $2", backdated, id)
	require.NoError(t, err)

	token, _, err := testServer.Login(committeeEmail, committeePassword)
	require.NoError(t, err)

	resp, err := testServer.RequestWithAuth(http.MethodPost, "/complaints/"+id+"/updates",
		map[string]string{"message": "Your report is being reviewed."}, token)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var updatedAt time.Time
	require.NoError(t, testDB.Pool.QueryRow(ctx,
		"SELECT updated_at FROM complaints WHERE id = $1", id).Scan(&updatedAt))
	assert.True(t, updatedAt.After(backdated.Add(time.Minute)),
		"updated_at %v should have moved past the backdated stamp %v", updatedAt, backdated)
}

func TestLogoutRevokesToken(t *testing.T) {
	resetState(t)
	ctx := context.Background()

	email, password := TestStaff("admin")
	_, err := SeedStaff(ctx, testDB.Pool, email, password, "Site Admin", "admin")
	require.NoError(t, err)

	token, _, err := testServer.Login(email, password)
	require.NoError(t, err)

	resp, err := testServer.RequestWithAuth(http.MethodPost, "/auth/logout", nil, token)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = testServer.RequestWithAuth(http.MethodGet, "/complaints", nil, token)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
