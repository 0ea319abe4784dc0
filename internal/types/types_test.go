package types

import (
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{"Projects", CategoryProjects, false},
		{"projects", CategoryProjects, false},
		{"  PROJECT  ", CategoryProjects, false},
		{"프로젝트", CategoryProjects, false},
		{"Areas", CategoryAreas, false},
		{"영역", CategoryAreas, false},
		{"resource", CategoryResources, false},
		{"자료", CategoryResources, false},
		{"Archives", CategoryArchives, false},
		{"보관", CategoryArchives, false},
		{"", "", true},
		{"Inbox", "", true},
		{"PARA", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCategory(%q) expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCategory(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range AllCategories {
		if !c.Valid() {
			t.Errorf("canonical category %q reported invalid", c)
		}
	}
	if Category("").Valid() {
		t.Error("empty category reported valid")
	}
	if Category("projects").Valid() {
		t.Error("lowercase category reported valid (Valid is strict, ParseCategory is lenient)")
	}
}

func TestClassificationResultValidate(t *testing.T) {
	tests := []struct {
		name    string
		result  ClassificationResult
		wantErr bool
	}{
		{
			name: "valid primary result",
			result: ClassificationResult{
				Category:   CategoryProjects,
				Confidence: 0.9,
				Reasoning:  "deadline and deliverable mentioned",
				Source:     SourcePrimary,
			},
		},
		{
			name: "valid secondary result without category",
			result: ClassificationResult{
				Confidence:      0.6,
				Source:          SourceSecondary,
				Tags:            []string{"budget", "quarterly"},
				MatchedKeywords: map[Category][]string{CategoryAreas: {"budget"}},
			},
		},
		{
			name:    "confidence above range",
			result:  ClassificationResult{Confidence: 1.2, Source: SourcePrimary},
			wantErr: true,
		},
		{
			name:    "confidence below range",
			result:  ClassificationResult{Confidence: -0.1, Source: SourceSecondary},
			wantErr: true,
		},
		{
			name:    "missing source",
			result:  ClassificationResult{Confidence: 0.5},
			wantErr: true,
		},
		{
			name:    "invalid category",
			result:  ClassificationResult{Category: "Inbox", Confidence: 0.5, Source: SourcePrimary},
			wantErr: true,
		},
		{
			name: "invalid matched keyword category",
			result: ClassificationResult{
				Confidence:      0.5,
				Source:          SourceSecondary,
				MatchedKeywords: map[Category][]string{"Inbox": {"misc"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConflictOutcomeValidate(t *testing.T) {
	valid := ConflictOutcome{
		FinalCategory:    CategoryProjects,
		Confidence:       0.95,
		ConfidenceGap:    0.05,
		ConflictDetected: true,
		RequiresReview:   true,
		ResolutionMethod: ResolutionAutoByConfidence,
		WinnerSource:     SourcePrimary,
		Reason:           "close race, primary wins by tie-break",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid outcome rejected: %v", err)
	}

	// requires_review without conflict_detected violates the invariant
	bad := valid
	bad.ConflictDetected = false
	if err := bad.Validate(); err == nil {
		t.Error("requires_review without conflict_detected should fail validation")
	}

	noCategory := valid
	noCategory.FinalCategory = ""
	if err := noCategory.Validate(); err == nil {
		t.Error("empty final_category should fail validation")
	}
}

func TestClampUnit(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0.0},
		{0.0, 0.0},
		{0.37, 0.37},
		{1.0, 1.0},
		{1.7, 1.0},
	}
	for _, tt := range tests {
		if got := ClampUnit(tt.in); got != tt.want {
			t.Errorf("ClampUnit(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUserContextEmpty(t *testing.T) {
	var nilCtx *UserContext
	if !nilCtx.Empty() {
		t.Error("nil context should be empty")
	}
	if !(&UserContext{}).Empty() {
		t.Error("zero context should be empty")
	}
	if (&UserContext{Areas: []string{"건강"}}).Empty() {
		t.Error("context with areas should not be empty")
	}
	if (&UserContext{Occupation: "developer"}).Empty() {
		t.Error("context with occupation should not be empty")
	}
}
