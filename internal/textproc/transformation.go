package textproc

// Transformation is the kind of processing a field value is being prepared
// for. Replacement rules can be restricted to a subset of kinds.
type Transformation int

const (
	Translation Transformation = iota
	Transliteration
	Audio
)

func (t Transformation) String() string {
	switch t {
	case Translation:
		return "Translation"
	case Transliteration:
		return "Transliteration"
	case Audio:
		return "Audio"
	default:
		return "Unknown"
	}
}

// AllTransformations lists the kinds in their fixed execution order.
var AllTransformations = []Transformation{Translation, Transliteration, Audio}
