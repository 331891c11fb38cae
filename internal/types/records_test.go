package types

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestProjectRecord_Completeness(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*ProjectRecord)
		want float64
	}{
		{"empty", func(p *ProjectRecord) {}, 0},
		{"scope only", func(p *ProjectRecord) { p.Scope = "a mobile app" }, 1.0 / 3.0},
		{"scope and timeline", func(p *ProjectRecord) {
			p.Scope = "a mobile app"
			p.Timeline = "3 months"
		}, 2.0 / 3.0},
		{"all core fields", func(p *ProjectRecord) {
			p.Scope = "a mobile app"
			p.Timeline = "3 months"
			p.Budget = "$10,000"
		}, 1.0},
		{"deliverables do not count", func(p *ProjectRecord) {
			p.Deliverables = []string{"iOS build"}
		}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProjectRecord("p1")
			tc.mod(p)
			if got := p.Completeness(); got != tc.want {
				t.Errorf("Expected completeness %v, got %v", tc.want, got)
			}
		})
	}
}

func TestProjectRecord_MissingFields(t *testing.T) {
	p := NewProjectRecord("p1")
	p.Scope = "redesign the marketing site"
	p.Deliverables = []string{"wireframes"}

	got := p.MissingFields()
	want := []string{FieldTimeline, FieldBudget, FieldDependencies}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MissingFields mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectRecord_HasField_WhitespaceIsEmpty(t *testing.T) {
	p := NewProjectRecord("p1")
	p.Timeline = "   "
	if p.HasField(FieldTimeline) {
		t.Error("Expected whitespace-only timeline to count as missing")
	}
}

func TestApplyExtracted_MergeRules(t *testing.T) {
	p := NewProjectRecord("p1")
	p.Scope = "original scope"
	p.Deliverables = []string{"logo"}
	before := p.UpdatedAt

	time.Sleep(time.Millisecond)
	p.ApplyExtracted(&ExtractedInfo{
		Fields: ExtractedFields{
			Timeline:     "by June",
			Scope:        "", // Empty scalar must not overwrite
			Deliverables: []string{"logo", "brand guide"},
		},
	})

	if p.Scope != "original scope" {
		t.Errorf("Expected empty extraction to preserve scope, got %q", p.Scope)
	}
	if p.Timeline != "by June" {
		t.Errorf("Expected timeline %q, got %q", "by June", p.Timeline)
	}
	// Arrays append without dedup.
	want := []string{"logo", "logo", "brand guide"}
	if diff := cmp.Diff(want, p.Deliverables); diff != "" {
		t.Errorf("Deliverables mismatch (-want +got):\n%s", diff)
	}
	if !p.UpdatedAt.After(before) {
		t.Error("Expected UpdatedAt to be refreshed")
	}
}

func TestApplyExtracted_NilStillTouches(t *testing.T) {
	p := NewProjectRecord("p1")
	before := p.UpdatedAt
	time.Sleep(time.Millisecond)
	p.ApplyExtracted(nil)
	if !p.UpdatedAt.After(before) {
		t.Error("Expected UpdatedAt refresh on nil extraction")
	}
}

func TestKnowledgeRecord_SnapshotCap(t *testing.T) {
	k := NewKnowledgeRecord()
	for i := 0; i < AnalysisHistoryCap+7; i++ {
		k.AppendSnapshot(AnalysisSnapshot{Timestamp: time.Now(), Completeness: float64(i)})
	}
	if len(k.AnalysisHistory) != AnalysisHistoryCap {
		t.Errorf("Expected history capped at %d, got %d", AnalysisHistoryCap, len(k.AnalysisHistory))
	}
	// Oldest entries fall off the front.
	if k.AnalysisHistory[0].Completeness != 7 {
		t.Errorf("Expected oldest surviving entry 7, got %v", k.AnalysisHistory[0].Completeness)
	}
}

func TestLearningRecord_RecordEffectiveness(t *testing.T) {
	l := NewLearningRecord()
	l.RecordEffectiveness("ask_about_scope", 0.8)
	l.RecordEffectiveness("ask_about_scope", 0.4)

	stat := l.QuestionEffectiveness["ask_about_scope"]
	if stat.TotalInteractions != 2 {
		t.Errorf("Expected 2 interactions, got %d", stat.TotalInteractions)
	}
	if stat.AverageEffectiveness != 0.6 {
		t.Errorf("Expected running mean 0.6, got %v", stat.AverageEffectiveness)
	}
}

func TestChatHistory_Recent(t *testing.T) {
	h := NewChatHistory()
	for i := 0; i < 5; i++ {
		h.Turns = append(h.Turns, ChatTurn{Role: "user", Message: string(rune('a' + i))})
	}

	recent := h.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(recent))
	}
	if recent[0].Message != "d" || recent[1].Message != "e" {
		t.Errorf("Expected last two turns d,e, got %s,%s", recent[0].Message, recent[1].Message)
	}

	if got := h.Recent(0); len(got) != 5 {
		t.Errorf("Expected Recent(0) to return all turns, got %d", len(got))
	}
}
