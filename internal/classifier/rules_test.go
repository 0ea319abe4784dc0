package classifier

import (
	"context"
	"testing"

	"github.com/paraflow/paraflow/internal/profile"
	"github.com/paraflow/paraflow/internal/types"
)

func TestRuleClassifier(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.Category
	}{
		{
			name: "deadline markers vote Projects",
			text: "신제품 출시 마감이 6월 30일까지입니다. 기획서 작성 필요.",
			want: types.CategoryProjects,
		},
		{
			name: "routine markers vote Areas",
			text: "매주 운동 루틴 관리와 습관 기록",
			want: types.CategoryAreas,
		},
		{
			name: "reference markers vote Resources",
			text: "Go 동시성 튜토리얼 링크와 참고 자료 정리",
			want: types.CategoryResources,
		},
		{
			name: "completion markers vote Archives",
			text: "2024년 종료된 프로젝트 회고, 완료된 작업 보관",
			want: types.CategoryArchives,
		},
		{
			name: "no markers defaults to Resources",
			text: "hello world",
			want: types.CategoryResources,
		},
		{
			name: "english markers work too",
			text: "launch plan with a hard deadline and three milestones",
			want: types.CategoryProjects,
		},
	}

	r := NewRuleClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Classify(context.Background(), tt.text, nil)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if err := result.Validate(); err != nil {
				t.Fatalf("invalid result: %v", err)
			}
			if result.Category != tt.want {
				t.Errorf("category = %q, want %q (reasoning: %s)", result.Category, tt.want, result.Reasoning)
			}
			if result.Source != types.SourcePrimary {
				t.Errorf("source = %q, want primary", result.Source)
			}
		})
	}
}

func TestRuleClassifierContextBiasesAreas(t *testing.T) {
	r := NewRuleClassifier()
	uctx := profile.NewBuilder().Build("u", "", []string{"재테크"}, nil)

	// One Resources marker vs a declared-area mention worth two Areas votes
	result, err := r.Classify(context.Background(), "재테크 공부용 참고 글", uctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Category != types.CategoryAreas {
		t.Errorf("declared-area mention should win: got %q (reasoning: %s)", result.Category, result.Reasoning)
	}
	if !result.HasContext {
		t.Error("HasContext should be true when a declared area matched")
	}
}

func TestRuleClassifierDeterministic(t *testing.T) {
	r := NewRuleClassifier()
	text := "매주 운동 습관과 완료된 백업 자료"

	first, _ := r.Classify(context.Background(), text, nil)
	second, _ := r.Classify(context.Background(), text, nil)

	if first.Category != second.Category || first.Confidence != second.Confidence || first.Reasoning != second.Reasoning {
		t.Error("rule classifier is not deterministic")
	}
}

func TestRuleClassifierConfidenceBounds(t *testing.T) {
	r := NewRuleClassifier()

	// Pile up markers; confidence must stay capped
	text := "마감 기한 출시 런칭 계획서 deadline due launch milestone deliverable todo"
	result, err := r.Classify(context.Background(), text, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Confidence > 0.8 {
		t.Errorf("rule confidence %v exceeds cap", result.Confidence)
	}
	if err := result.Validate(); err != nil {
		t.Fatal(err)
	}
}
