package personal

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "personal_memory.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTraitUpsertPreservesFirstObserved(t *testing.T) {
	s := testStore(t)

	t1 := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)

	s.now = func() time.Time { return t1 }
	if err := s.RecordTrait("communication", "directness", "high", 0.6, ""); err != nil {
		t.Fatalf("RecordTrait: %v", err)
	}

	s.now = func() time.Time { return t2 }
	if err := s.RecordTrait("communication", "directness", "very high", 0.8, "updated view"); err != nil {
		t.Fatalf("RecordTrait update: %v", err)
	}

	profile, err := s.GetProfile()
	if err != nil {
		t.Fatal(err)
	}

	traits := profile.Traits["communication"]
	if len(traits) != 1 {
		t.Fatalf("got %d traits, want 1 (upsert must not duplicate)", len(traits))
	}

	tr := traits[0]
	if tr.Value != "very high" {
		t.Errorf("value = %q, want updated value", tr.Value)
	}
	if tr.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", tr.Confidence)
	}
	if !tr.FirstObserved.Equal(t1) {
		t.Errorf("first_observed = %v, want original %v", tr.FirstObserved, t1)
	}
	if !tr.LastUpdated.Equal(t2) {
		t.Errorf("last_updated = %v, want %v", tr.LastUpdated, t2)
	}
}

func TestPreferenceUpsertPreservesFirstNoted(t *testing.T) {
	s := testStore(t)

	t1 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	s.now = func() time.Time { return t1 }
	if err := s.RecordPreference("tools", "editor", "vim", "muscle memory", 0.9); err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return t2 }
	if err := s.RecordPreference("tools", "editor", "neovim", "switched recently", 0.9); err != nil {
		t.Fatal(err)
	}

	profile, err := s.GetProfile()
	if err != nil {
		t.Fatal(err)
	}

	prefs := profile.Preferences["tools"]
	if len(prefs) != 1 {
		t.Fatalf("got %d preferences, want 1", len(prefs))
	}
	if prefs[0].Value != "neovim" {
		t.Errorf("value = %q", prefs[0].Value)
	}
	if !prefs[0].FirstNoted.Equal(t1) {
		t.Errorf("first_noted = %v, want %v", prefs[0].FirstNoted, t1)
	}
	if !prefs[0].LastConfirmed.Equal(t2) {
		t.Errorf("last_confirmed = %v, want %v", prefs[0].LastConfirmed, t2)
	}
}

func TestContextOverwrite(t *testing.T) {
	s := testStore(t)

	if err := s.UpdateContext("communication", "humor", "dry sarcasm", 0.7); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateContext("communication", "humor", "puns", 0.9); err != nil {
		t.Fatal(err)
	}

	profile, err := s.GetProfile()
	if err != nil {
		t.Fatal(err)
	}
	entries := profile.Context["communication"]
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Value != "puns" || entries[0].Importance != 0.9 {
		t.Errorf("entry = %+v, want plain overwrite", entries[0])
	}
}

func TestInsightsAppendOnly(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 3; i++ {
		if err := s.RecordInsight("goal", "wants to learn Go", "", 0.8); err != nil {
			t.Fatal(err)
		}
	}

	insights, err := s.RecentInsights(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(insights) != 3 {
		t.Errorf("got %d insights, want 3 (identical inserts must not merge)", len(insights))
	}
}

func TestRecentInsightsNewestFirst(t *testing.T) {
	s := testStore(t)

	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, text := range []string{"oldest", "middle", "newest"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		if err := s.RecordInsight("note", text, "", 0.8); err != nil {
			t.Fatal(err)
		}
	}

	insights, err := s.RecentInsights(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(insights) != 2 {
		t.Fatalf("got %d insights, want 2", len(insights))
	}
	if insights[0].Text != "newest" || insights[1].Text != "middle" {
		t.Errorf("order = %q, %q; want newest first", insights[0].Text, insights[1].Text)
	}
}

func TestSynthesizeContextPlaceholder(t *testing.T) {
	s := testStore(t)

	digest, err := s.SynthesizeContext("Seth", DefaultThresholds())
	if err != nil {
		t.Fatalf("SynthesizeContext: %v", err)
	}
	if digest != Placeholder {
		t.Errorf("digest = %q, want placeholder", digest)
	}
	if digest == "" {
		t.Error("digest must never be empty")
	}
}

func TestSynthesizeContextConfidenceGating(t *testing.T) {
	s := testStore(t)

	if err := s.RecordTrait("communication", "directness", "high", 0.5, ""); err != nil {
		t.Fatal(err)
	}

	digest, err := s.SynthesizeContext("Seth", DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(digest, "directness") {
		t.Errorf("low-confidence trait leaked into digest: %q", digest)
	}
	if digest != Placeholder {
		t.Errorf("nothing qualifies, want placeholder, got %q", digest)
	}

	// Re-record above threshold; now it must surface.
	if err := s.RecordTrait("communication", "directness", "high", 0.8, ""); err != nil {
		t.Fatal(err)
	}
	digest, err = s.SynthesizeContext("Seth", DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(digest, "directness: high") {
		t.Errorf("high-confidence trait missing from digest: %q", digest)
	}
	if !strings.Contains(digest, "Seth's Personality") {
		t.Errorf("digest missing personality header: %q", digest)
	}
}

func TestSynthesizeContextSections(t *testing.T) {
	s := testStore(t)

	if err := s.RecordTrait("working_style", "focus", "deep work blocks", 0.9, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateContext("communication", "preferred_tone", "direct and brief", 0.8); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateContext("communication", "small_talk", "minimal", 0.3); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordInsight("goal", "shipping a side project this month", "", 0.9); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordInsight("mood", "tired today", "", 0.4); err != nil {
		t.Fatal(err)
	}

	digest, err := s.SynthesizeContext("Seth", DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(digest, "- Working Style: focus: deep work blocks") {
		t.Errorf("trait line malformed:\n%s", digest)
	}
	if !strings.Contains(digest, "How Seth Communicates") {
		t.Errorf("communication header missing:\n%s", digest)
	}
	if !strings.Contains(digest, "- Preferred Tone: direct and brief") {
		t.Errorf("context line malformed:\n%s", digest)
	}
	if strings.Contains(digest, "small_talk") || strings.Contains(digest, "Small Talk") {
		t.Errorf("low-importance context leaked:\n%s", digest)
	}
	if !strings.Contains(digest, "- shipping a side project this month") {
		t.Errorf("insight missing:\n%s", digest)
	}
	if strings.Contains(digest, "tired today") {
		t.Errorf("low-confidence insight leaked:\n%s", digest)
	}
}

func TestSynthesizeContextCustomThresholds(t *testing.T) {
	s := testStore(t)

	if err := s.RecordTrait("values", "curiosity", "strong", 0.5, ""); err != nil {
		t.Fatal(err)
	}

	// A permissive cutoff surfaces what the default hides.
	digest, err := s.SynthesizeContext("Seth", Thresholds{Trait: 0.4, Context: 0.4, Insight: 0.4})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(digest, "curiosity") {
		t.Errorf("trait above custom cutoff missing: %q", digest)
	}
}

func TestExportAllUnfiltered(t *testing.T) {
	s := testStore(t)

	if err := s.RecordTrait("values", "curiosity", "strong", 0.2, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordInsight("note", "low confidence note", "", 0.1); err != nil {
		t.Fatal(err)
	}
	if err := s.LogSessionSummary(SessionSummary{
		SessionID:           "main",
		Topic:               "go generics",
		LearnedSomethingNew: true,
	}); err != nil {
		t.Fatal(err)
	}

	export, err := s.ExportAll()
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}

	if len(export.Profile.Traits["values"]) != 1 {
		t.Error("export must include low-confidence traits")
	}
	if len(export.Insights) != 1 {
		t.Error("export must include low-confidence insights")
	}
	if len(export.SessionHistory) != 1 || export.SessionHistory[0].Topic != "go generics" {
		t.Errorf("session history = %+v", export.SessionHistory)
	}
	if export.ExportTimestamp.IsZero() {
		t.Error("export timestamp not set")
	}
}
