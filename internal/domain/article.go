package domain

import "strings"

// Domain markers that change how an article is handled during resolution.
const (
	// AggregatorDomain identifies news-aggregator links whose real target is
	// only reachable through one or two redirects.
	AggregatorDomain = "google.com"

	// BiomedicalDomain identifies the biomedical literature index whose
	// entries are linked through identifiers rather than a scraped URL.
	BiomedicalDomain = "pubmed.ncbi.nlm.nih.gov"
)

// Article is the core entity: one feed entry, normalized and ready for
// resolution against the knowledge base.
type Article struct {
	Title         string   `json:"title"`
	Alias         string   `json:"alias,omitempty"`
	URL           string   `json:"url"`
	Published     string   `json:"published,omitempty"`
	DOI           string   `json:"doi,omitempty"`
	PMID          string   `json:"pmid,omitempty"`
	PMCID         string   `json:"pmcid,omitempty"`
	SourceNote    string   `json:"source_note,omitempty"`
	RedirectChain []string `json:"redirect_chain,omitempty"`
	Feed          string   `json:"feed,omitempty"`

	// EntityID is attached once the article has been resolved.
	EntityID string `json:"entity_id,omitempty"`
}

// FromAggregator reports whether the article arrived through an aggregator
// redirect, which means its title carries a trailing source suffix.
func (a Article) FromAggregator() bool {
	for _, u := range a.RedirectChain {
		if strings.Contains(u, AggregatorDomain) {
			return true
		}
	}
	return false
}

// Biomedical reports whether the article points at the biomedical index.
func (a Article) Biomedical() bool {
	return strings.Contains(a.URL, BiomedicalDomain)
}

// HasIdentifiers reports whether any external identifier is present.
func (a Article) HasIdentifiers() bool {
	return a.DOI != "" || a.PMID != "" || a.PMCID != ""
}

// Identifiers returns the non-empty external identifiers.
func (a Article) Identifiers() []string {
	var ids []string
	for _, id := range []string{a.DOI, a.PMID, a.PMCID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// MappingKeys lists every key under which a resolved article is recorded:
// the canonical URL, each redirect URL, and each identifier.
func (a Article) MappingKeys() []string {
	keys := []string{a.URL}
	keys = append(keys, a.RedirectChain...)
	keys = append(keys, a.Identifiers()...)
	return keys
}

// UnmatchedRecord is one entry in the unmatched ledger. The JSON field names
// match the ledger files written by earlier versions of the tool.
type UnmatchedRecord struct {
	Title string `json:"Title"`
	URL   string `json:"URL"`
}
