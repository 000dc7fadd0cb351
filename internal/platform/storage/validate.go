package storage

import (
	"encoding/json"
	"fmt"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

var (
	contestRequiredFields = []string{"id", "name", "platform", "date"}
	problemRequiredFields = []string{"id", "title", "platform"}
)

// ValidateContestsData checks the shape of a contests document before any
// of it is decoded into records.
func ValidateContestsData(raw []byte) error {
	items, err := arrayField(raw, "contests")
	if err != nil {
		return err
	}
	for i, item := range items {
		if err := requireFields(item, contestRequiredFields); err != nil {
			return fmt.Errorf("%w: contest #%d: %w", common.ErrValidation, i, err)
		}
		var date string
		if err := json.Unmarshal(item["date"], &date); err != nil || !model.ValidDate(date) {
			return fmt.Errorf("%w: contest #%d: unparseable date %s", common.ErrValidation, i, item["date"])
		}
	}
	return nil
}

func ValidateProblemsData(raw []byte) error {
	items, err := arrayField(raw, "problems")
	if err != nil {
		return err
	}
	for i, item := range items {
		if err := requireFields(item, problemRequiredFields); err != nil {
			return fmt.Errorf("%w: problem #%d: %w", common.ErrValidation, i, err)
		}
		if tags, ok := item["tags"]; ok && !isNullish(tags) && !isArray(tags) {
			return fmt.Errorf("%w: problem #%d: tags must be an array", common.ErrValidation, i)
		}
	}
	return nil
}

func arrayField(raw []byte, field string) ([]map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return nil, fmt.Errorf("%w: document is not a JSON object", common.ErrValidation)
	}
	list, ok := doc[field]
	if !ok || !isArray(list) {
		return nil, fmt.Errorf("%w: %q must be an array", common.ErrValidation, field)
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("%w: every %s entry must be an object", common.ErrValidation, field)
	}
	return items, nil
}

func requireFields(item map[string]json.RawMessage, fields []string) error {
	if item == nil {
		return fmt.Errorf("entry is not an object")
	}
	for _, f := range fields {
		if _, ok := item[f]; !ok {
			return fmt.Errorf("missing field %q", f)
		}
	}
	return nil
}

func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// isNullish matches the falsy values a tags field may legally hold.
func isNullish(raw json.RawMessage) bool {
	switch string(raw) {
	case "null", "false", `""`, "0":
		return true
	}
	return false
}
