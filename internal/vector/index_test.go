package vector

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func royalty(t *testing.T) *Index {
	t.Helper()
	idx, err := New([]Entry{
		{Word: "man", Vector: []float64{1, 0, 0}},
		{Word: "woman", Vector: []float64{0, 1, 0}},
		{Word: "king", Vector: []float64{1, 0, 1}},
		{Word: "queen", Vector: []float64{0, 1, 1}},
		{Word: "apple", Vector: []float64{0.5, 0.5, -1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func words(ns []Neighbor) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Word
	}
	return out
}

func TestNew_rejectsMalformedTables(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    error
	}{
		{"dimension mismatch", []Entry{{"a", []float64{1, 2}}, {"b", []float64{1}}}, ErrDimensionMismatch},
		{"nan", []Entry{{"a", []float64{math.NaN(), 0}}}, ErrNonFinite},
		{"inf", []Entry{{"a", []float64{0, math.Inf(-1)}}}, ErrNonFinite},
		{"duplicate", []Entry{{"a", []float64{1}}, {"a", []float64{2}}}, ErrDuplicateWord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries)
			if !errors.Is(err, tt.want) {
				t.Errorf("New error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNew_precomputesNormsAndCopies(t *testing.T) {
	vec := []float64{3, 4}
	idx, err := New([]Entry{{Word: "w", Vector: vec}})
	if err != nil {
		t.Fatal(err)
	}
	vec[0] = 100
	if n, _ := idx.Norm("w"); n != 5 {
		t.Errorf("norm = %v, want 5", n)
	}
	got, _ := idx.Vector("w")
	if got[0] != 3 {
		t.Errorf("index should hold its own copy, got %v", got)
	}
	if idx.Dimensions() != 2 || idx.Size() != 1 {
		t.Errorf("dims=%d size=%d", idx.Dimensions(), idx.Size())
	}
}

func TestFindNeighbors_respectsExcludeAndTopN(t *testing.T) {
	idx := royalty(t)
	res, err := idx.FindNeighbors([]float64{1, 0, 1}, 2, map[string]bool{"king": true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	for _, n := range res {
		if n.Word == "king" {
			t.Error("excluded word returned")
		}
	}
	for i := 1; i < len(res); i++ {
		if res[i].Similarity > res[i-1].Similarity {
			t.Errorf("results not descending: %v", res)
		}
	}
}

func TestFindNeighbors_smallVocabularyReturnsAll(t *testing.T) {
	idx := royalty(t)
	res, err := idx.FindNeighbors([]float64{0, 0, 1}, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 5 {
		t.Errorf("expected 5 results, got %d", len(res))
	}
}

func TestFindNeighbors_defaultTopN(t *testing.T) {
	entries := make([]Entry, 15)
	for i := range entries {
		entries[i] = Entry{Word: string(rune('a' + i)), Vector: []float64{float64(i + 1), 1}}
	}
	idx, _ := New(entries)
	res, err := idx.FindNeighbors([]float64{1, 1}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != DefaultTopN {
		t.Errorf("expected %d results, got %d", DefaultTopN, len(res))
	}
}

func TestFindNeighbors_everythingExcluded(t *testing.T) {
	idx := royalty(t)
	exclude := map[string]bool{}
	for _, w := range idx.Words() {
		exclude[w] = true
	}
	res, err := idx.FindNeighbors([]float64{1, 0, 0}, 10, exclude)
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || len(res) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", res)
	}
}

func TestFindNeighbors_tiesKeepVocabularyOrder(t *testing.T) {
	idx, _ := New([]Entry{
		{"zeta", []float64{0, 1}},
		{"beta", []float64{2, 0}},
		{"alpha", []float64{1, 0}},
		{"gamma", []float64{5, 0}},
	})
	res, err := idx.FindNeighbors([]float64{1, 0}, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"beta", "alpha", "gamma", "zeta"}
	if got := words(res); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestFindNeighbors_zeroQueryScoresZero(t *testing.T) {
	idx := royalty(t)
	res, err := idx.FindNeighbors([]float64{0, 0, 0}, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range res {
		if n.Similarity != 0 {
			t.Errorf("%s similarity = %v, want 0", n.Word, n.Similarity)
		}
	}
	if got := words(res); !reflect.DeepEqual(got, idx.Words()) {
		t.Errorf("zero query should keep vocabulary order, got %v", got)
	}
}

func TestFindNeighbors_errors(t *testing.T) {
	idx := royalty(t)
	if _, err := idx.FindNeighbors([]float64{1, 0}, 3, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
	if _, err := idx.FindNeighbors([]float64{math.NaN(), 0, 0}, 3, nil); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected non-finite error, got %v", err)
	}
	empty, _ := New(nil)
	res, err := empty.FindNeighbors([]float64{1}, 3, nil)
	if err != nil || len(res) != 0 {
		t.Errorf("empty index: res=%v err=%v", res, err)
	}
}

func TestAnalogy_kingManWoman(t *testing.T) {
	idx := royalty(t)
	res, err := idx.Analogy("king", "man", "woman", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Word != "queen" {
		t.Fatalf("expected queen, got %v", res)
	}
	if math.Abs(res[0].Similarity-1) > 1e-9 {
		t.Errorf("similarity = %v", res[0].Similarity)
	}
}

func TestAnalogy_excludesOperands(t *testing.T) {
	idx := royalty(t)
	res, err := idx.Analogy("king", "man", "woman", 10)
	if err != nil {
		t.Fatal(err)
	}
	if got := words(res); !reflect.DeepEqual(got, []string{"queen", "apple"}) {
		t.Errorf("got %v", got)
	}
}

func TestAnalogy_reportsMissingWords(t *testing.T) {
	idx := royalty(t)
	_, err := idx.Analogy("king", "xyz123", "woman", 5)
	var missing *MissingWordsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingWordsError, got %v", err)
	}
	if !reflect.DeepEqual(missing.Words, []string{"xyz123"}) {
		t.Errorf("missing = %v", missing.Words)
	}
	if !errors.Is(err, ErrWordNotFound) {
		t.Error("errors.Is(err, ErrWordNotFound) should hold")
	}

	_, err = idx.Analogy("foo", "bar", "foo", 5)
	if !errors.As(err, &missing) || !reflect.DeepEqual(missing.Words, []string{"foo", "bar"}) {
		t.Errorf("expected [foo bar], got %v", err)
	}
	if err.Error() != "words not in vocabulary: foo, bar" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestAnalogy_zeroResultDegradesToZeroSimilarity(t *testing.T) {
	idx := royalty(t)
	res, err := idx.Analogy("king", "king", "man", 10)
	if err != nil {
		t.Fatal(err)
	}
	// king - king + man == man, which is excluded; the rest score against (1,0,0).
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %v", res)
	}
	idx2, _ := New([]Entry{{"a", []float64{1, 1}}, {"b", []float64{1, 1}}, {"c", []float64{0, 0}}, {"d", []float64{3, 1}}})
	res, err = idx2.Analogy("a", "b", "c", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Word != "d" || res[0].Similarity != 0 {
		t.Errorf("zero analogy vector: got %v", res)
	}
}

func TestNeighborsOf(t *testing.T) {
	idx := royalty(t)
	res, err := idx.NeighborsOf("king", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Word == "king" {
		t.Errorf("got %v", res)
	}
	if _, err := idx.NeighborsOf("nope", 1); !errors.Is(err, ErrWordNotFound) {
		t.Errorf("expected ErrWordNotFound, got %v", err)
	}
}

func TestEntries_roundTripOrder(t *testing.T) {
	idx := royalty(t)
	rebuilt, err := New(idx.Entries())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rebuilt.Words(), idx.Words()) {
		t.Errorf("order changed: %v", rebuilt.Words())
	}
}
