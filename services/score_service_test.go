package services

import (
	"math/rand"
	"reflect"
	"testing"

	"conference-api/models"
)

func f(v float64) *float64 { return &v }

func TestAggregateEmptyReturnsNil(t *testing.T) {
	if got := Aggregate(nil); got != nil {
		t.Fatalf("expected nil aggregate for no reviews, got %+v", got)
	}
	if got := Aggregate([]models.Review{}); got != nil {
		t.Fatalf("expected nil aggregate for empty slice, got %+v", got)
	}
}

func TestAggregateDimensionsAreIndependent(t *testing.T) {
	reviews := []models.Review{
		{Clarity: f(4)},
		{Clarity: f(2)},
		{Clarity: f(3)},
	}

	agg := Aggregate(reviews)
	if agg == nil {
		t.Fatal("expected non-nil aggregate")
	}
	if agg.Clarity == nil || *agg.Clarity != 3 {
		t.Fatalf("expected clarity mean 3, got %v", agg.Clarity)
	}
	if agg.Overall != nil || agg.Relevance != nil || agg.TechnicalDepth != nil || agg.Diversity != nil {
		t.Fatalf("expected all unscored dimensions to stay nil, got %+v", agg)
	}
	if agg.ReviewCount != 3 {
		t.Fatalf("expected review count 3, got %d", agg.ReviewCount)
	}
}

func TestAggregateSkipsMissingValuesPerDimension(t *testing.T) {
	// The second review skips diversity but still contributes clarity.
	reviews := []models.Review{
		{Clarity: f(5), Diversity: f(1)},
		{Clarity: f(3)},
	}

	agg := Aggregate(reviews)
	if agg.Clarity == nil || *agg.Clarity != 4 {
		t.Fatalf("expected clarity mean 4, got %v", agg.Clarity)
	}
	if agg.Diversity == nil || *agg.Diversity != 1 {
		t.Fatalf("expected diversity mean 1 from the single value, got %v", agg.Diversity)
	}
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	reviews := []models.Review{
		{Overall: f(1), Relevance: f(2.5), TechnicalDepth: f(4), Clarity: f(3), Diversity: f(5)},
		{Overall: f(4), Relevance: f(1), Clarity: f(2)},
		{Overall: f(3), TechnicalDepth: f(5), Diversity: f(2)},
		{Relevance: f(4.5), Clarity: f(5)},
	}

	want := Aggregate(reviews)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		shuffled := make([]models.Review, len(reviews))
		copy(shuffled, reviews)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := Aggregate(shuffled)
		if !reflect.DeepEqual(derefAgg(want), derefAgg(got)) {
			t.Fatalf("aggregate depends on order: want %+v got %+v", derefAgg(want), derefAgg(got))
		}
	}
}

func derefAgg(a *AggregateScores) map[string]interface{} {
	out := map[string]interface{}{"count": a.ReviewCount}
	set := func(name string, v *float64) {
		if v == nil {
			out[name] = nil
			return
		}
		out[name] = *v
	}
	set("overall", a.Overall)
	set("relevance", a.Relevance)
	set("technical_depth", a.TechnicalDepth)
	set("clarity", a.Clarity)
	set("diversity", a.Diversity)
	return out
}
