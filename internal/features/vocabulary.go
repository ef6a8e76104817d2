package features

// Category is one one-hot column: the stored value and its column label.
type Category struct {
	Value string
	Label string
}

// Vocabulary fixes the one-hot columns. A match value outside the vocabulary encodes as all zeros.
type Vocabulary struct {
	Surfaces []Category
	Levels   []Category
	Rounds   []Category
}

// DefaultVocabulary returns the surface, level and round columns in their fixed order.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Surfaces: same("Hard", "Clay", "Grass", "Carpet"),
		Levels: []Category{
			{"F", "Future"},
			{"M", "Master"},
			{"A", "ATP"},
			{"C", "Challenger"},
			{"G", "Grand Slam"},
		},
		Rounds: same("Q1", "Q2", "Q3", "Q4", "R128", "R64", "R32", "R16", "QF", "SF", "F", "RR"),
	}
}

func same(values ...string) []Category {
	out := make([]Category, len(values))
	for i, v := range values {
		out[i] = Category{Value: v, Label: v}
	}
	return out
}

func oneHot(dst []float64, cats []Category, v string) []float64 {
	for _, c := range cats {
		if c.Value == v {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	}
	return dst
}

func categoryLabels(dst []string, cats []Category) []string {
	for _, c := range cats {
		dst = append(dst, c.Label)
	}
	return dst
}
