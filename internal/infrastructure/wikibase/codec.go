package wikibase

import (
	"encoding/json"

	"NewsReconciler/internal/domain"
)

// Wire representation of an entity as returned by wbgetentities.
type apiEntity struct {
	Labels map[string]struct {
		Value string `json:"value"`
	} `json:"labels"`
	Claims map[string][]apiStatement `json:"claims"`
}

type apiStatement struct {
	Mainsnak apiSnak `json:"mainsnak"`
	Rank     string  `json:"rank"`
}

type apiSnak struct {
	Property  string `json:"property"`
	Datavalue struct {
		Value json.RawMessage `json:"value"`
		Type  string          `json:"type"`
	} `json:"datavalue"`
}

func (e apiEntity) toDomain(id string) *domain.Entity {
	entity := &domain.Entity{ID: id}
	if label, ok := e.Labels["en"]; ok {
		entity.Label = label.Value
	}
	for property, statements := range e.Claims {
		for _, statement := range statements {
			value, ok := decodeSnakValue(statement.Mainsnak)
			if !ok {
				continue
			}
			rank := domain.Rank(statement.Rank)
			if rank == "" {
				rank = domain.RankNormal
			}
			entity.Claims = append(entity.Claims, domain.Claim{
				Property: property,
				Value:    value,
				Rank:     rank,
			})
		}
	}
	return entity
}

// decodeSnakValue flattens the handful of datavalue shapes the matcher
// compares against: plain strings, entity ids, times, and monolingual text.
func decodeSnakValue(snak apiSnak) (string, bool) {
	raw := snak.Datavalue.Value
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var structured struct {
		ID   string `json:"id"`
		Time string `json:"time"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &structured); err != nil {
		return "", false
	}
	switch {
	case structured.ID != "":
		return structured.ID, true
	case structured.Time != "":
		return structured.Time, true
	case structured.Text != "":
		return structured.Text, true
	}
	return "", false
}

// buildEditPayload renders an entity into the wbeditentity data document.
func buildEditPayload(entity *domain.Entity) map[string]any {
	payload := map[string]any{}

	if entity.Label != "" {
		payload["labels"] = map[string]any{
			"en": map[string]string{"language": "en", "value": entity.Label},
		}
	}
	if len(entity.Aliases) > 0 {
		aliases := make([]map[string]string, 0, len(entity.Aliases))
		for _, alias := range entity.Aliases {
			aliases = append(aliases, map[string]string{"language": "en", "value": alias})
		}
		payload["aliases"] = map[string]any{"en": aliases}
	}
	if len(entity.Claims) > 0 {
		claims := make([]map[string]any, 0, len(entity.Claims))
		for _, claim := range entity.Claims {
			claims = append(claims, buildStatement(claim))
		}
		payload["claims"] = claims
	}
	return payload
}

func buildStatement(claim domain.Claim) map[string]any {
	rank := claim.Rank
	if rank == "" {
		rank = domain.RankNormal
	}
	statement := map[string]any{
		"mainsnak": buildSnak(claim.Property, claim.Type, claim.Value, claim.Language),
		"type":     "statement",
		"rank":     string(rank),
	}
	if len(claim.Qualifiers) > 0 {
		qualifiers := map[string][]map[string]any{}
		for _, q := range claim.Qualifiers {
			qualifiers[q.Property] = append(qualifiers[q.Property], buildSnak(q.Property, q.Type, q.Value, "en"))
		}
		statement["qualifiers"] = qualifiers
	}
	return statement
}

func buildSnak(property string, kind domain.ClaimType, value, language string) map[string]any {
	snak := map[string]any{
		"snaktype": "value",
		"property": property,
	}
	switch kind {
	case domain.ClaimItem:
		snak["datavalue"] = map[string]any{
			"value": map[string]any{"entity-type": "item", "id": value},
			"type":  "wikibase-entityid",
		}
	case domain.ClaimTime:
		snak["datavalue"] = map[string]any{
			"value": map[string]any{
				"time":          value,
				"timezone":      0,
				"before":        0,
				"after":         0,
				"precision":     11,
				"calendarmodel": "http://www.wikidata.org/entity/Q1985727",
			},
			"type": "time",
		}
	case domain.ClaimMonolingual:
		if language == "" {
			language = "en"
		}
		snak["datavalue"] = map[string]any{
			"value": map[string]any{"text": value, "language": language},
			"type":  "monolingualtext",
		}
	case domain.ClaimQuantity:
		snak["datavalue"] = map[string]any{
			"value": map[string]any{"amount": "+" + value, "unit": "1"},
			"type":  "quantity",
		}
	default:
		// url, external-id, and plain string claims share the string shape.
		snak["datavalue"] = map[string]any{"value": value, "type": "string"}
	}
	return snak
}
