package queryplan

import (
	"context"
	"testing"

	"github.com/crawlchat/crawlchat/internal/cache"
	"github.com/crawlchat/crawlchat/internal/model"
)

func TestClassifyPriorityOrder(t *testing.T) {
	cases := []struct {
		query string
		want  model.QueryCategory
	}{
		{"give me a one line answer about the contract", model.CategoryConciseResponse},
		{"what does this clause mean in the agreement", model.CategoryLegalDocument},
		{"calculate the total cost of the project", model.CategoryCalculation},
		{"how much will I have in 5 years from now", model.CategoryMultiYearCalculation},
		{"summarize the quarterly report", model.CategorySummary},
		{"what is the capital of France", model.CategoryGeneral},
	}
	for _, c := range cases {
		if got := Classify(c.query); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.query, got, c.want)
		}
	}
}

func TestIsFollowUp(t *testing.T) {
	if !IsFollowUp("what about it") {
		t.Error("expected pronoun query to be a follow-up")
	}
	if !IsFollowUp("short query") {
		t.Error("expected query under 5 words to be a follow-up")
	}
	if IsFollowUp("please provide a detailed breakdown of quarterly revenue by region") {
		t.Error("expected long standalone query to not be a follow-up")
	}
}

func TestCalculationShortcut(t *testing.T) {
	numeric := cache.NewNumericContextCache(cache.NewMemory())
	ctx := context.Background()

	if _, ok := CalculationShortcut(ctx, numeric, "sess-1", model.CategoryMultiYearCalculation, "how much in 5 years"); ok {
		t.Fatal("expected no shortcut before a base salary is cached")
	}

	if err := numeric.SetFloat(ctx, "sess-1", cache.KeyTakeHomeSalary, 50000); err != nil {
		t.Fatalf("set float: %v", err)
	}

	answer, ok := CalculationShortcut(ctx, numeric, "sess-1", model.CategoryMultiYearCalculation, "how much in 5 years")
	if !ok {
		t.Fatal("expected shortcut to fire once a base salary is cached")
	}
	if answer == "" {
		t.Error("expected non-empty answer")
	}
}

func TestExtractNumericFigures(t *testing.T) {
	numeric := cache.NewNumericContextCache(cache.NewMemory())
	ctx := context.Background()

	response := "Your take home salary is $45,000 after taxes."
	if err := ExtractNumericFigures(ctx, numeric, "sess-2", "what is my take home pay", response); err != nil {
		t.Fatalf("extract: %v", err)
	}

	value, ok, err := numeric.GetFloat(ctx, "sess-2", cache.KeyTakeHomeSalary)
	if err != nil || !ok {
		t.Fatalf("expected cached take-home salary, ok=%v err=%v", ok, err)
	}
	if value != 45000 {
		t.Errorf("got %v, want 45000", value)
	}
}
