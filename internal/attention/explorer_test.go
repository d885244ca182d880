package attention

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/vector"
	"go.uber.org/zap"
)

func loadExplorer(t *testing.T, opts ...Option) *Explorer {
	t.Helper()
	ds, err := dataset.Load(filepath.Join("..", "dataset", "testdata"), dataset.DefaultFiles(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	att, err := ds.AttentionMaps()
	if err != nil {
		t.Fatal(err)
	}
	return New(att, opts...)
}

func TestSoftmax(t *testing.T) {
	got := Softmax([]float64{1, 2, 3})
	var sum float64
	for _, v := range got {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("sum = %v", sum)
	}
	if !(got[0] < got[1] && got[1] < got[2]) {
		t.Errorf("not monotonic: %v", got)
	}
	big := Softmax([]float64{1000, 1000})
	if math.Abs(big[0]-0.5) > 1e-12 || math.IsNaN(big[1]) {
		t.Errorf("large logits overflowed: %v", big)
	}
	if Softmax(nil) != nil {
		t.Error("empty input should return nil")
	}
}

func TestWeights_storedNearUnitTemperature(t *testing.T) {
	e := loadExplorer(t)
	hm, err := e.Weights("river", 0, 0, 1.005)
	if err != nil {
		t.Fatal(err)
	}
	if hm.Recomputed {
		t.Error("temperature within epsilon should reuse stored weights")
	}
	if hm.Weights[1][3] != 0.4 {
		t.Errorf("stored weight = %v", hm.Weights[1][3])
	}
	if !hm.Special[0] || hm.Special[1] {
		t.Errorf("special = %v", hm.Special)
	}
}

func TestWeights_recomputedWithTemperature(t *testing.T) {
	e := loadExplorer(t)
	hm, err := e.Weights("river", 0, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !hm.Recomputed {
		t.Fatal("expected recomputation")
	}
	want := Softmax([]float64{0.5, 1, 1.5, 2})
	for j := range want {
		if math.Abs(hm.Weights[1][j]-want[j]) > 1e-12 {
			t.Errorf("weight[1][%d] = %v, want %v", j, hm.Weights[1][j], want[j])
		}
	}
	// Uniform scores stay uniform at any temperature.
	for _, w := range hm.Weights[0] {
		if math.Abs(w-0.25) > 1e-12 {
			t.Errorf("uniform row changed: %v", hm.Weights[0])
		}
	}
}

func TestWeights_errors(t *testing.T) {
	e := loadExplorer(t)
	tests := []struct {
		name  string
		id    string
		layer int
		head  int
		temp  float64
		want  error
	}{
		{"unknown sentence", "nope", 0, 0, 1, ErrUnknownSentence},
		{"layer", "river", 5, 0, 1, ErrOutOfRange},
		{"negative head", "river", 0, -1, 1, ErrOutOfRange},
		{"too cold", "river", 0, 0, 0.01, ErrBadTemperature},
		{"too hot", "river", 0, 0, 50, ErrBadTemperature},
		{"nan", "river", 0, 0, math.NaN(), ErrBadTemperature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Weights(tt.id, tt.layer, tt.head, tt.temp); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExplorer_options(t *testing.T) {
	e := loadExplorer(t, WithTemperatureEpsilon(0.5), WithTemperatureRange(1, 10))
	hm, err := e.Weights("river", 0, 0, 1.4)
	if err != nil {
		t.Fatal(err)
	}
	if hm.Recomputed {
		t.Error("wider epsilon should reuse stored weights")
	}
	if _, err := e.Weights("river", 0, 0, 0.5); !errors.Is(err, ErrBadTemperature) {
		t.Errorf("expected range error, got %v", err)
	}
}

func TestNeighbors_contextualLayerOffset(t *testing.T) {
	e := loadExplorer(t)
	n, err := e.Neighbors("river", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !n.OfInterest || n.Token != "bank" {
		t.Fatalf("got %+v", n)
	}
	if len(n.Contextual) != 1 || n.Contextual[0].Word != "shore" {
		t.Errorf("layer 0 should read key 1, got %v", n.Contextual)
	}
	if len(n.Static) != 2 {
		t.Errorf("static = %v", n.Static)
	}

	n, _ = e.Neighbors("river", 1, 2)
	if len(n.Contextual) != 1 || n.Contextual[0].Word != "riverbank" {
		t.Errorf("layer 2 has no key 3 and should fall back to key 2, got %v", n.Contextual)
	}

	n, _ = e.Neighbors("river", 1, 5)
	if n.Contextual == nil || len(n.Contextual) != 0 {
		t.Errorf("layer 5 should have no contextual neighbors, got %v", n.Contextual)
	}
}

func TestContextualNeighbors_fallsBackToSameLayer(t *testing.T) {
	toi := dataset.TokenOfInterest{
		ContextualNeighbors: map[string][]vector.Neighbor{"4": {{Word: "x", Similarity: 1}}},
	}
	if got := ContextualNeighbors(toi, 4); len(got) != 1 || got[0].Word != "x" {
		t.Errorf("got %v", got)
	}
	if got := ContextualNeighbors(toi, 3); len(got) != 1 {
		t.Errorf("layer 3 should read key 4, got %v", got)
	}
	if got := ContextualNeighbors(toi, 7); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestNeighbors_tokenNotOfInterest(t *testing.T) {
	e := loadExplorer(t)
	n, err := e.Neighbors("river", 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n.OfInterest || len(n.Static) != 0 || n.Contextual == nil {
		t.Errorf("got %+v", n)
	}
	if _, err := e.Neighbors("river", 9, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected out of range, got %v", err)
	}
}

func TestBestDefault(t *testing.T) {
	e := loadExplorer(t)
	if got := e.BestDefault("river"); got.Layer != 1 || got.Head != 1 {
		t.Errorf("river best = %+v", got)
	}
	if got := e.BestDefault("money"); got.Layer != 0 || got.Head != 0 {
		t.Errorf("money best = %+v", got)
	}
}

func TestQKV(t *testing.T) {
	e := loadExplorer(t)
	v, err := e.QKV("river", 1, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if v.Token != "river" || v.Q[0] != 5 || v.K[0] != 6 || v.V[0] != 7 {
		t.Errorf("got %+v", v)
	}
	if _, err := e.QKV("river", 0, 0, 0); !errors.Is(err, ErrNoQKV) {
		t.Errorf("expected ErrNoQKV, got %v", err)
	}
	if _, err := e.QKV("river", 1, 2, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected head out of range, got %v", err)
	}
	layers, err := e.QKVLayers("river")
	if err != nil || len(layers) != 1 || layers[0] != 1 {
		t.Errorf("layers = %v, %v", layers, err)
	}
}

func TestProjection_skipsSpecialTokens(t *testing.T) {
	e := loadExplorer(t)
	pts, err := e.Projection("river", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 {
		t.Fatalf("expected 2 points, got %v", pts)
	}
	if pts[0].Token != "bank" || !pts[0].OfInterest || pts[0].X != 1 || pts[0].Y != 2 {
		t.Errorf("first point = %+v", pts[0])
	}
	if pts[1].OfInterest {
		t.Error("river is not a token of interest")
	}
	if _, err := e.Projection("money", 0); !errors.Is(err, ErrNoProjection) {
		t.Errorf("expected ErrNoProjection, got %v", err)
	}
}

func TestSentences_orderAndLabels(t *testing.T) {
	e := loadExplorer(t)
	list := e.Sentences()
	if len(list) != 2 || list[0].ID != "river" || list[1].ID != "money" {
		t.Fatalf("got %+v", list)
	}
	if list[0].Label != "the bank of the river" {
		t.Errorf("short label changed: %q", list[0].Label)
	}
	label := list[1].Label
	if !strings.HasSuffix(label, "…") || len([]rune(label)) != 68 {
		t.Errorf("long label = %q (%d runes)", label, len([]rune(label)))
	}
	if e.Layers() != 2 || e.Heads() != 2 {
		t.Errorf("layers=%d heads=%d", e.Layers(), e.Heads())
	}
}
