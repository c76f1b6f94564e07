// Package interest converts caller-supplied interest definitions, in either
// legacy flat-list or hierarchical form, into the canonical InterestModel
// consumed by every pipeline stage. Normalization happens exactly once, at
// the pipeline boundary; downstream code never branches on input shape.
package interest

import (
	"encoding/json"
	"fmt"

	"github.com/vidscope/vidscope/pkg/domain"
)

// Input is the sum type for interest definitions: either a flat list of
// category names or a hierarchical mapping. Exactly one side is set after
// unmarshaling; only Normalize consumes it.
type Input struct {
	Flat         []string
	Hierarchical map[string]any
}

// UnmarshalJSON accepts either a JSON array of strings or a JSON object
func (in *Input) UnmarshalJSON(data []byte) error {
	var flat []string
	if err := json.Unmarshal(data, &flat); err == nil {
		in.Flat = flat
		in.Hierarchical = nil
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("interests must be an array of names or an object: %w", err)
	}
	in.Flat = nil
	in.Hierarchical = raw
	return nil
}

// Normalize produces a fully-normalized interest model. It never fails:
// malformed priorities, keywords, or subcategories are replaced with
// defaults rather than rejected.
func Normalize(in Input) domain.InterestModel {
	model := domain.InterestModel{}

	for _, name := range in.Flat {
		if name == "" {
			continue
		}
		model[name] = domain.Interest{
			Priority:      domain.DefaultPriority,
			Keywords:      []string{},
			Subcategories: map[string]domain.Subinterest{},
		}
	}

	for name, raw := range in.Hierarchical {
		if name == "" {
			continue
		}
		model[name] = normalizeCategory(raw)
	}

	return model
}

// Parse unmarshals raw JSON in either supported shape and normalizes it
func Parse(data []byte) (domain.InterestModel, error) {
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse interests: %w", err)
	}
	return Normalize(in), nil
}

func normalizeCategory(raw any) domain.Interest {
	res := domain.Interest{
		Priority:      domain.DefaultPriority,
		Keywords:      []string{},
		Subcategories: map[string]domain.Subinterest{},
	}

	fields, ok := raw.(map[string]any)
	if !ok { // category mapped to something that is not an object, keep defaults
		return res
	}

	res.Priority = normalizePriority(fields["priority"])
	res.Keywords = normalizeKeywords(fields["keywords"])

	if subs, ok := fields["subcategories"].(map[string]any); ok {
		for subName, subRaw := range subs {
			if subName == "" {
				continue
			}
			sub := domain.Subinterest{Priority: domain.DefaultPriority, Keywords: []string{}}
			if subFields, ok := subRaw.(map[string]any); ok {
				sub.Priority = normalizePriority(subFields["priority"])
				sub.Keywords = normalizeKeywords(subFields["keywords"])
			}
			res.Subcategories[subName] = sub
		}
	}

	return res
}

// normalizePriority coerces any supplied priority to a valid one: numeric
// values are clamped to [1,10], everything else becomes the default.
func normalizePriority(v any) int {
	switch p := v.(type) {
	case float64: // json numbers decode as float64
		return domain.ClampPriority(int(p))
	case int:
		return domain.ClampPriority(p)
	default:
		return domain.DefaultPriority
	}
}

// normalizeKeywords keeps string elements of an array, anything else
// collapses to an empty list
func normalizeKeywords(v any) []string {
	list, ok := v.([]any)
	if !ok {
		if strs, ok := v.([]string); ok { // already-typed input, e.g. re-normalization
			return append([]string{}, strs...)
		}
		return []string{}
	}

	keywords := make([]string, 0, len(list))
	for _, el := range list {
		if s, ok := el.(string); ok && s != "" {
			keywords = append(keywords, s)
		}
	}
	return keywords
}
