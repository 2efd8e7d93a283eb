package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/mkoseki/techo/internal/db"
)

func createGoalViaAPI(t *testing.T, url string, body map[string]any) db.Goal {
	t.Helper()
	resp, raw := doJSON(t, http.MethodPost, url+"/api/goals", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create goal status = %d, want 201: %s", resp.StatusCode, raw)
	}
	var g db.Goal
	decode(t, raw, &g)
	return g
}

func TestGoalParentSpanSync(t *testing.T) {
	_, ts := newTestServer(t)

	parent := createGoalViaAPI(t, ts.URL, map[string]any{
		"title":      "release",
		"start_date": "2024-05-10",
		"end_date":   "2024-05-12",
	})
	createGoalViaAPI(t, ts.URL, map[string]any{
		"title":      "prep",
		"parent_id":  parent.ID,
		"start_date": "2024-05-01",
		"end_date":   "2024-05-03",
	})

	// The parent's span becomes the min/max over its children.
	_, raw := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/goals/%d", ts.URL, parent.ID), nil)
	var got db.Goal
	decode(t, raw, &got)
	if got.StartDate != "2024-05-01" {
		t.Errorf("parent StartDate = %q, want 2024-05-01", got.StartDate)
	}
	if got.EndDate != "2024-05-03" {
		t.Errorf("parent EndDate = %q, want 2024-05-03", got.EndDate)
	}
}

func TestGoalCycleRejected(t *testing.T) {
	_, ts := newTestServer(t)

	a := createGoalViaAPI(t, ts.URL, map[string]any{
		"title": "a", "start_date": "2024-05-01", "end_date": "2024-05-02",
	})
	b := createGoalViaAPI(t, ts.URL, map[string]any{
		"title": "b", "parent_id": a.ID, "start_date": "2024-05-01", "end_date": "2024-05-02",
	})

	// a under its own descendant must be refused.
	resp, raw := doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/goals/%d", ts.URL, a.ID), map[string]any{
		"parent_id": b.ID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409: %s", resp.StatusCode, raw)
	}

	// Self-parenting too.
	resp, _ = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/goals/%d", ts.URL, a.ID), map[string]any{
		"parent_id": a.ID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("self-parent status = %d, want 409", resp.StatusCode)
	}
}

func TestGoalDetachWithNullParent(t *testing.T) {
	_, ts := newTestServer(t)

	parent := createGoalViaAPI(t, ts.URL, map[string]any{
		"title": "p", "start_date": "2024-05-01", "end_date": "2024-05-02",
	})
	child := createGoalViaAPI(t, ts.URL, map[string]any{
		"title": "c", "parent_id": parent.ID, "start_date": "2024-05-01", "end_date": "2024-05-02",
	})

	resp, raw := doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/goals/%d", ts.URL, child.ID), map[string]any{
		"parent_id": nil,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, raw)
	}
	var got db.Goal
	decode(t, raw, &got)
	if got.ParentID != nil {
		t.Errorf("ParentID = %v, explicit null must detach to root", *got.ParentID)
	}
}

func TestGoalUnknownParentRejected(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/goals", map[string]any{
		"title": "orphan", "parent_id": 999,
		"start_date": "2024-05-01", "end_date": "2024-05-02",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGoalLayoutEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	parent := createGoalViaAPI(t, ts.URL, map[string]any{
		"title": "span", "start_date": "2024-02-12", "end_date": "2024-02-16",
	})
	createGoalViaAPI(t, ts.URL, map[string]any{
		"title": "left", "parent_id": parent.ID,
		"start_date": "2024-02-12", "end_date": "2024-02-14",
	})
	createGoalViaAPI(t, ts.URL, map[string]any{
		"title": "right", "parent_id": parent.ID,
		"start_date": "2024-02-13", "end_date": "2024-02-15",
	})
	// Outside the requested week, must not appear.
	createGoalViaAPI(t, ts.URL, map[string]any{
		"title": "far", "start_date": "2024-03-01", "end_date": "2024-03-02",
	})

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/api/goals/layout?week_start=2024-02-12", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, raw)
	}

	var body goalLayoutResponse
	decode(t, raw, &body)
	if body.WeekStart != "2024-02-12" || body.WeekEnd != "2024-02-18" {
		t.Errorf("week = %s..%s, want 2024-02-12..2024-02-18", body.WeekStart, body.WeekEnd)
	}
	if len(body.Bands) != 3 {
		t.Fatalf("len(bands) = %d, want 3", len(body.Bands))
	}
	for _, b := range body.Bands {
		if b.Title == "far" {
			t.Error("band outside the week leaked into the layout")
		}
	}
}

func TestGoalLayoutRequiresWeekStart(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/goals/layout", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
