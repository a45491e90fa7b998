package feed

import (
	"fmt"
	"sort"
	"strings"

	"github.com/icastellano/oppanel/internal/model"
)

// DecodeRecord maps one raw payload row onto a Record through the field
// alias table. Keys with no alias match are ignored. Aliases resolve in
// declared order: when a row carries two spellings of one field, the
// earlier alias in the table wins.
func DecodeRecord(row map[string]any) model.Record {
	canon := canonicalRow(row)
	var r model.Record

	for _, field := range model.RecordFieldOrder {
		value, ok := lookupAlias(canon, field)
		if !ok {
			continue
		}

		switch field {
		case model.FieldID:
			r.ID = asString(value)
		case model.FieldOpenDate:
			r.OpenDate = ParseDate(asString(value))
		case model.FieldBuyer:
			r.Buyer = asString(value)
		case model.FieldTitle:
			r.Title = asString(value)
		case model.FieldPlatform:
			r.Platform = asString(value)
		case model.FieldOperator:
			r.Operator = asString(value)
		case model.FieldAccount:
			r.Account = asString(value)
		case model.FieldCategory:
			r.Category = asString(value)
		case model.FieldProvince:
			r.Province = asString(value)
		case model.FieldProcess:
			r.ProcessID = asString(value)
		case model.FieldLink:
			r.Link = asString(value)
		case model.FieldStatus:
			r.Status = model.ParseStatus(asString(value))
		case model.FieldQuantity:
			r.Quantity = asNumber(value)
		}
	}

	if r.Status == "" {
		r.Status = model.StatusRegular
	}
	return r
}

// canonicalRow re-keys a raw row by canonical key. When two raw keys fold
// to the same canonical key, the lexicographically smaller raw key wins.
func canonicalRow(row map[string]any) map[string]any {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	canon := make(map[string]any, len(row))
	for _, k := range keys {
		ck := model.CanonicalKey(k)
		if _, exists := canon[ck]; !exists {
			canon[ck] = row[k]
		}
	}
	return canon
}

func lookupAlias(canon map[string]any, field model.RecordField) (any, bool) {
	for _, alias := range model.RecordFieldAliases[field] {
		if v, ok := canon[model.CanonicalKey(alias)]; ok {
			return v, true
		}
	}
	return nil, false
}

// DecodeRecords decodes a raw row array, skipping entries that are not
// objects. The second result counts the skipped entries.
func DecodeRecords(rows []any) ([]model.Record, int) {
	out := make([]model.Record, 0, len(rows))
	skipped := 0
	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		out = append(out, DecodeRecord(row))
	}
	return out, skipped
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

func asNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		return ParseNumber(t)
	default:
		return 0
	}
}
