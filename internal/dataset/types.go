package dataset

import (
	"encoding/json"
	"fmt"

	"github.com/hyperjump/tfexplorer/internal/vector"
)

// FullEmbeddings is embeddings_full.json.
type FullEmbeddings struct {
	Vectors Ordered[[]float64] `json:"vectors"`
}

// Entries converts the table into index entries in file order.
func (f *FullEmbeddings) Entries() []vector.Entry {
	out := make([]vector.Entry, 0, f.Vectors.Len())
	for _, w := range f.Vectors.Keys {
		out = append(out, vector.Entry{Word: w, Vector: f.Vectors.Values[w]})
	}
	return out
}

// Projection is embeddings_projected.json: 2D and optional 3D coordinates per word.
type Projection struct {
	Metadata struct {
		Has3D bool `json:"has3d"`
	} `json:"metadata"`
	Words      []ProjectedWord   `json:"words"`
	Categories Ordered[Category] `json:"categories"`
}

// ProjectedWord is one point of the embedding scatter plot.
type ProjectedWord struct {
	Word       string   `json:"word"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	X3D        *float64 `json:"x3d,omitempty"`
	Y3D        *float64 `json:"y3d,omitempty"`
	Z3D        *float64 `json:"z3d,omitempty"`
	Categories []string `json:"categories"`
}

// Category groups projected words. Case-file categories are highlighted on demand.
type Category struct {
	Label      string `json:"label"`
	Color      string `json:"color"`
	IsCaseFile bool   `json:"isCaseFile"`
}

// Has3D reports whether 3D coordinates are present, either flagged in metadata or
// present on the first word.
func (p *Projection) Has3D() bool {
	if p.Metadata.Has3D {
		return true
	}
	return len(p.Words) > 0 && p.Words[0].Z3D != nil
}

// Word returns the projected point for word.
func (p *Projection) Word(word string) (ProjectedWord, bool) {
	for _, w := range p.Words {
		if w.Word == word {
			return w, true
		}
	}
	return ProjectedWord{}, false
}

// InCategory returns the words tagged with category, in file order.
func (p *Projection) InCategory(category string) []ProjectedWord {
	var out []ProjectedWord
	for _, w := range p.Words {
		for _, c := range w.Categories {
			if c == category {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// CaseFiles returns the IDs of case-file categories in file order.
func (p *Projection) CaseFiles() []string {
	var out []string
	for _, id := range p.Categories.Keys {
		if p.Categories.Values[id].IsCaseFile {
			out = append(out, id)
		}
	}
	return out
}

// TokenizerData is tokenizer_examples.json.
type TokenizerData struct {
	Metadata struct {
		PrimaryTokenizer struct {
			Name      string `json:"name"`
			VocabSize int    `json:"vocabSize"`
		} `json:"primaryTokenizer"`
	} `json:"metadata"`
	Categories Ordered[ExampleCategory] `json:"categories"`
	Examples   []Example                `json:"examples"`
	OneHotDemo *OneHotDemo              `json:"oneHotDemo,omitempty"`
}

// ExampleCategory is a group of curated tokenizer examples.
type ExampleCategory struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Order int    `json:"order"`
}

// Token is one token as shown to the user.
type Token struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// TokenSet is the output of one tokenizer for an example.
type TokenSet struct {
	Tokens     []Token `json:"tokens"`
	TokenCount int     `json:"tokenCount,omitempty"`
}

// Example is a curated tokenizer example with comparison tokenizations.
type Example struct {
	Text       string              `json:"text"`
	Category   string              `json:"category"`
	IsOpener   bool                `json:"isOpener"`
	Annotation string              `json:"annotation"`
	Primary    TokenSet            `json:"primary"`
	Comparison map[string]TokenSet `json:"comparison,omitempty"`
}

// OneHotDemo drives the one-hot encoding walkthrough.
type OneHotDemo struct {
	VocabSize         int                   `json:"vocabSize"`
	Words             map[string]OneHotWord `json:"words"`
	DotProducts       []DotProduct          `json:"dotProducts"`
	AnimationSequence []AnimationStep       `json:"animationSequence"`
}

// OneHotWord locates the single 1 of a word's one-hot vector.
type OneHotWord struct {
	PrimaryTokenID int `json:"primaryTokenId"`
}

// DotProduct is a precomputed dot product between two one-hot vectors.
type DotProduct struct {
	WordA      string  `json:"wordA"`
	WordB      string  `json:"wordB"`
	DotProduct float64 `json:"dotProduct"`
}

// AnimationStep is one step of the one-hot walkthrough.
type AnimationStep struct {
	Action    string `json:"action"`
	Word      string `json:"word,omitempty"`
	WordA     string `json:"wordA,omitempty"`
	WordB     string `json:"wordB,omitempty"`
	Narration string `json:"narration"`
}

// AttentionData is attention_data.json.
type AttentionData struct {
	Metadata struct {
		Model   string `json:"model,omitempty"`
		NLayers int    `json:"nLayers"`
		NHeads  int    `json:"nHeads"`
	} `json:"metadata"`
	Sentences    Ordered[Sentence]    `json:"sentences"`
	BestDefaults map[string]LayerHead `json:"bestDefaults"`
}

// LayerHead selects one attention head.
type LayerHead struct {
	Layer int `json:"layer"`
	Head  int `json:"head"`
}

// Sentence holds every precomputed attention artifact for one input sentence.
// Matrices are indexed [layer][head][query][key].
type Sentence struct {
	Text                string                  `json:"text"`
	Tokens              []string                `json:"tokens"`
	SpecialTokenMask    []Flag                  `json:"specialTokenMask"`
	TokensOfInterest    []TokenOfInterest       `json:"tokensOfInterest"`
	AttentionWeights    [][][][]float64         `json:"attentionWeights"`
	QKScores            [][][][]float64         `json:"qkScores"`
	QKV                 map[string]QKV          `json:"qkv"`
	SentenceProjections map[string][][2]float64 `json:"sentenceProjections"`
}

// TokenOfInterest carries precomputed static and per-layer contextual neighbors.
type TokenOfInterest struct {
	Index               int                          `json:"index"`
	StaticNeighbors     []vector.Neighbor            `json:"staticNeighbors"`
	ContextualNeighbors map[string][]vector.Neighbor `json:"contextualNeighbors"`
}

// QKV holds query, key and value vectors for one layer, indexed [head][token][dim].
type QKV struct {
	Q [][][]float64 `json:"q"`
	K [][][]float64 `json:"k"`
	V [][][]float64 `json:"v"`
}

// Flag decodes either a JSON boolean or a 0/1 number.
type Flag bool

// UnmarshalJSON accepts true, false and any number (non-zero is true).
func (f *Flag) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case float64:
		*f = t != 0
	case nil:
		*f = false
	default:
		return fmt.Errorf("invalid flag %s", string(b))
	}
	return nil
}
