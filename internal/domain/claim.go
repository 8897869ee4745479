package domain

// Rank expresses preference among multiple claims for the same property.
type Rank string

const (
	RankNormal     Rank = "normal"
	RankDeprecated Rank = "deprecated"
)

// ClaimType selects the datavalue encoding used by the remote store.
type ClaimType string

const (
	ClaimItem        ClaimType = "item"
	ClaimURL         ClaimType = "url"
	ClaimTime        ClaimType = "time"
	ClaimExternalID  ClaimType = "external-id"
	ClaimMonolingual ClaimType = "monolingualtext"
	ClaimQuantity    ClaimType = "quantity"
)

// Qualifier is a secondary property/value pair attached to a claim.
type Qualifier struct {
	Property string
	Type     ClaimType
	Value    string
}

// Claim is a single property/value assertion on an entity. Value holds the
// entity id for item claims, the canonical time string for time claims, and
// the plain text otherwise. Language applies to monolingual claims only.
type Claim struct {
	Property   string
	Type       ClaimType
	Value      string
	Language   string
	Rank       Rank
	Qualifiers []Qualifier
}

// Entity is a knowledge-base record: its label, display aliases, and claims.
// For writes the ID is empty when a new record should be created.
type Entity struct {
	ID      string
	Label   string
	Aliases []string
	Claims  []Claim
}

// ValuesFor returns the values of every claim for the given property.
func (e *Entity) ValuesFor(property string) []string {
	var values []string
	for _, c := range e.Claims {
		if c.Property == property {
			values = append(values, c.Value)
		}
	}
	return values
}

// AddClaim appends a claim, skipping exact duplicates. The remote store
// merges on write as well; deduplicating here just keeps the payload clean.
func (e *Entity) AddClaim(claim Claim) {
	for _, c := range e.Claims {
		if c.Property == claim.Property && c.Value == claim.Value && c.Rank == claim.Rank {
			return
		}
	}
	e.Claims = append(e.Claims, claim)
}
