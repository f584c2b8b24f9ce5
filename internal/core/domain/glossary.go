package domain

// GlossaryEntry is one extracted term pairing from an accepted translation.
type GlossaryEntry struct {
	DocumentID      string `json:"document_id,omitempty"`
	Term            string `json:"term"`
	Translation     string `json:"translation"`
	Context         string `json:"context,omitempty"`
	Category        string `json:"category,omitempty"`
	EntityCategory  string `json:"entity_category,omitempty"`
	SourceReference string `json:"source_reference,omitempty"`
}

// GlossaryColumns is the column order of the tabular glossary store.
var GlossaryColumns = []string{
	"document_id", "term", "translation", "category", "context", "source_reference", "entity_category",
}

func (e GlossaryEntry) Row() []string {
	return []string{e.DocumentID, e.Term, e.Translation, e.Category, e.Context, e.SourceReference, e.EntityCategory}
}
