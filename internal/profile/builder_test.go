package profile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestBuildExpandsAreaKeywords(t *testing.T) {
	b := NewBuilder()

	ctx := b.Build("user-1", "개발자", []string{"건강", "재테크"}, []string{"독서"})

	if ctx.Occupation != "개발자" {
		t.Errorf("occupation = %q, want 개발자", ctx.Occupation)
	}
	if !reflect.DeepEqual(ctx.Areas, []string{"건강", "재테크"}) {
		t.Errorf("areas = %v", ctx.Areas)
	}

	want := []string{"건강", "건강 관련", "건강 업무", "건강 프로젝트"}
	if !reflect.DeepEqual(ctx.ContextKeywords["건강"], want) {
		t.Errorf("keywords for 건강 = %v, want %v", ctx.ContextKeywords["건강"], want)
	}
	if len(ctx.ContextKeywords) != 2 {
		t.Errorf("keyword map has %d entries, want 2", len(ctx.ContextKeywords))
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder()

	first := b.Build("u", "engineer", []string{"health", "finance"}, []string{"reading"})
	second := b.Build("u", "engineer", []string{"health", "finance"}, []string{"reading"})

	if !reflect.DeepEqual(first, second) {
		t.Error("Build is not deterministic for identical inputs")
	}
}

func TestBuildEmptyAreas(t *testing.T) {
	b := NewBuilder()

	ctx := b.Build("user-1", "designer", nil, nil)

	if len(ctx.ContextKeywords) != 0 {
		t.Errorf("empty areas should produce empty keyword map, got %v", ctx.ContextKeywords)
	}
	if ctx.Empty() {
		t.Error("context with occupation should not report empty")
	}

	bare := b.Build("user-2", "", nil, nil)
	if !bare.Empty() {
		t.Error("context with no fields should report empty")
	}
}

func TestBuildCleansMalformedInput(t *testing.T) {
	b := NewBuilder()

	ctx := b.Build("user-1", "  pm  ", []string{" 건강 ", "", "건강", "  "}, []string{"", " 등산 "})

	if ctx.Occupation != "pm" {
		t.Errorf("occupation not trimmed: %q", ctx.Occupation)
	}
	if !reflect.DeepEqual(ctx.Areas, []string{"건강"}) {
		t.Errorf("areas not deduplicated/trimmed: %v", ctx.Areas)
	}
	if !reflect.DeepEqual(ctx.Interests, []string{"등산"}) {
		t.Errorf("interests not cleaned: %v", ctx.Interests)
	}
}

func TestLoadStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")

	content := `profiles:
  user-1:
    occupation: developer
    areas: [건강, 커리어]
    interests: [독서]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d profiles, want 1", store.Len())
	}

	p := store.Lookup("user-1")
	if p.Occupation != "developer" {
		t.Errorf("occupation = %q", p.Occupation)
	}
	if len(p.Areas) != 2 {
		t.Errorf("areas = %v", p.Areas)
	}

	// Unknown user degrades to a zero profile, not an error
	if zero := store.Lookup("stranger"); zero.Occupation != "" || len(zero.Areas) != 0 {
		t.Errorf("unknown user should yield zero profile, got %+v", zero)
	}
}

func TestLoadStoreMissingFile(t *testing.T) {
	store, err := LoadStore(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing profiles file should not be an error: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("missing file should yield empty store, got %d profiles", store.Len())
	}
}

func TestLoadStoreMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte("profiles: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStore(path); err == nil {
		t.Error("malformed yaml should be an error")
	}
}
