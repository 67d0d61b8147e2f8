package summary

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"servicedesk/internal/aggregate"
	"servicedesk/internal/complaint"
)

func sampleActivity() aggregate.Activity {
	groups := aggregate.GroupByAssignee([]complaint.Record{
		{ID: "1", Assignee: "IMRAN", ComplaintNo: "C-1", CustomerName: "ALI RAZA", Model: "SD-555", Status: complaint.StatusCompleted, LastUpdateDate: "10-05-2024 10:15"},
		{ID: "2", Assignee: "IMRAN", ComplaintNo: "C-2", CustomerName: "A VERY LONG CUSTOMER NAME THAT NEEDS TO WRAP ACROSS LINES", Status: complaint.StatusOnRoute, RegistrationDate: "10-05-2024 11:00"},
		{ID: "3", ComplaintNo: "C-3", CustomerName: "SANA", Status: complaint.StatusPending, RegistrationDate: "10-05-2024"},
	})
	return aggregate.Activity{DateLabel: "10 MAY 2024", ActivePersonnel: len(groups), Groups: groups, Total: 3}
}

func TestRenderActivity(t *testing.T) {
	data, err := RenderActivity(sampleActivity())
	if err != nil {
		t.Fatalf("expected no error but got: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("expected valid PNG but got: %v", err)
	}
	b := img.Bounds()
	if b.Dx() < 600 || b.Dy() < titlePadding+headerHeight+2*groupHeight+3*minRowHeight {
		t.Errorf("unexpectedly small board %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderActivity_Empty(t *testing.T) {
	if _, err := RenderActivity(aggregate.Activity{DateLabel: "10 MAY 2024"}); err == nil {
		t.Error("expected error for empty activity")
	}
}

func TestCaption(t *testing.T) {
	got := Caption(sampleActivity())

	for _, want := range []string{"10 MAY 2024", "IMRAN: 2 jobs, 1 done", "UNASSIGNED: 1 jobs, 0 done", "Total: 3 jobs, 2 active personnel"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected caption to contain %q:\n%s", want, got)
		}
	}
}
