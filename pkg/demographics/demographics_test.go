package demographics

import (
	"testing"
	"time"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func birthForAge(age int) string {
	// A few days past the birthday keeps days/365 on the intended year
	return now.AddDate(-age, 0, -10).Format("02/01/2006")
}

func TestDeriveOutliersClearEverything(t *testing.T) {
	for _, age := range []int{5, 9, 71, 90} {
		d := Derive(birthForAge(age), now)
		if d.Age != nil || d.Bracket != "" || d.Generation != "" {
			t.Fatalf("age %d: expected unset demographics, got %+v", age, d)
		}
	}
}

func TestDeriveAge30(t *testing.T) {
	d := Derive(birthForAge(30), now)
	if d.Age == nil || *d.Age != 30 {
		t.Fatalf("expected age 30, got %+v", d)
	}
	if d.Bracket != "30-35" {
		t.Fatalf("expected bracket 30-35, got %q", d.Bracket)
	}
	if d.Generation != "Millennial" {
		t.Fatalf("expected Millennial, got %q", d.Generation)
	}
}

func TestDeriveAcceptsCanonicalAndTime(t *testing.T) {
	born := now.AddDate(-40, 0, -10)
	for _, v := range []interface{}{born, born.Format("02/01/2006 15:04:05"), born.Format("2006-01-02")} {
		d := Derive(v, now)
		if d.Age == nil || *d.Age != 40 || d.Bracket != "40+" || d.Generation != "Gen X" {
			t.Fatalf("value %v: unexpected demographics %+v", v, d)
		}
	}
}

func TestDeriveUnparseable(t *testing.T) {
	for _, v := range []interface{}{nil, "", "nan", "hier", 12} {
		d := Derive(v, now)
		if d.Age != nil || d.Bracket != "" || d.Generation != "" {
			t.Fatalf("value %v: expected unset demographics, got %+v", v, d)
		}
	}
}

func TestBinsAreLeftClosed(t *testing.T) {
	cases := []struct {
		age        int
		bracket    string
		generation string
	}{
		{10, "<18", "Très jeune"},
		{17, "<18", "Très jeune"},
		{18, "18-25", "Gen Z"},
		{24, "18-25", "Gen Z"},
		{25, "25-30", "Millennial"},
		{30, "30-35", "Millennial"},
		{35, "35-40", "Gen X"},
		{40, "40+", "Gen X"},
		{50, "40+", "Boomer+"},
		{70, "40+", "Boomer+"},
	}
	for _, tc := range cases {
		if got := Bracket(tc.age); got != tc.bracket {
			t.Fatalf("Bracket(%d) = %q, want %q", tc.age, got, tc.bracket)
		}
		if got := Generation(tc.age); got != tc.generation {
			t.Fatalf("Generation(%d) = %q, want %q", tc.age, got, tc.generation)
		}
	}
}

func TestBracketOrder(t *testing.T) {
	want := []string{"<18", "18-25", "25-30", "30-35", "35-40", "40+"}
	if len(BracketOrder) != len(want) {
		t.Fatalf("unexpected bracket order %v", BracketOrder)
	}
	for i := range want {
		if BracketOrder[i] != want[i] {
			t.Fatalf("unexpected bracket order %v", BracketOrder)
		}
	}
}
