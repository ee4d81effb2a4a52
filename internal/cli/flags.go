package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	Collection string
	MediaDir   string
	RulesFile  string
	BaseURL    string
	APIKey     string

	// Operations
	Detect        bool
	ApplyRules    bool
	Deck          string
	NoteType      string
	ListLanguages bool
	ListVoices    bool
	Force         bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{}
}
