package install

// Target names one method slot to instrument and the label its records carry.
type Target struct {
	Owner string // Registered owner name, e.g. "openai.chat.completions"
	Attr  string // Slot name on the owner, e.g. "Create"
	Label string // sdk_method value written to records
}

// String returns "owner.attr".
func (t Target) String() string {
	return t.Owner + "." + t.Attr
}

// DefaultCatalog returns the targets instrumented when no catalog is given.
// Streaming entry points share the label of the blocking call they mirror.
func DefaultCatalog() []Target {
	return []Target{
		{Owner: "openai.chat.completions", Attr: "Create", Label: "openai.chat.completions.create"},
		{Owner: "openai.chat.completions", Attr: "CreateStream", Label: "openai.chat.completions.create"},
		{Owner: "openai.chat.completions", Attr: "Stream", Label: "openai.chat.completions.create"},
		{Owner: "openai.completions", Attr: "Create", Label: "openai.completions.create"},
		{Owner: "openai.completions", Attr: "CreateStream", Label: "openai.completions.create"},
		{Owner: "openai.async.chat.completions", Attr: "Create", Label: "openai.async.chat.completions.create"},
		{Owner: "openai.async.completions", Attr: "Create", Label: "openai.async.completions.create"},
		{Owner: "anthropic.messages", Attr: "Create", Label: "anthropic.messages.create"},
		{Owner: "anthropic.completions", Attr: "Create", Label: "anthropic.completions.create"},
		{Owner: "anthropic.async.messages", Attr: "Create", Label: "anthropic.async.messages.create"},
		{Owner: "anthropic.async.completions", Attr: "Create", Label: "anthropic.async.completions.create"},
	}
}
