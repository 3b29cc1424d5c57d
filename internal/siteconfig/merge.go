package siteconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const ExportVersion = "1.0"

// ExportEnvelope is the file format of a product export.
type ExportEnvelope struct {
	Version    string    `json:"version"`
	ExportDate time.Time `json:"exportDate"`
	Products   []Product `json:"products"`
}

// ImportEnvelope keeps products raw so that a partial product in the file
// only overwrites the fields it actually carries.
type ImportEnvelope struct {
	Version  string            `json:"version"`
	Products []json.RawMessage `json:"products"`
}

var ErrBadImport = errors.New("invalid import file format")

func NewExport(products []Product, now time.Time) ExportEnvelope {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return ExportEnvelope{Version: ExportVersion, ExportDate: now, Products: out}
}

// DecodeImport parses an export file. A missing products array is an error.
func DecodeImport(data []byte) (*ImportEnvelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImport, err)
	}
	raw, ok := fields["products"]
	if !ok || len(raw) == 0 || raw[0] != '[' {
		return nil, ErrBadImport
	}
	var env ImportEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImport, err)
	}
	return &env, nil
}

type MergeResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// MergeProducts folds imported products into existing ones. Products whose id
// is already present are overlaid field by field and stamped dateUpdated; the
// rest are appended with dateAdded, getting a fresh id when theirs is zero or
// already taken.
func MergeProducts(existing []Product, imported []json.RawMessage, now time.Time) ([]Product, MergeResult, error) {
	out := make([]Product, len(existing))
	for i, p := range existing {
		out[i] = p.Clone()
	}
	var res MergeResult

	for n, raw := range imported {
		var incoming Product
		if err := json.Unmarshal(raw, &incoming); err != nil {
			return nil, MergeResult{}, fmt.Errorf("%w: product %d: %v", ErrBadImport, n, err)
		}

		idx := -1
		if incoming.ID != 0 {
			for i := range out {
				if out[i].ID == incoming.ID {
					idx = i
					break
				}
			}
		}

		if idx >= 0 {
			merged, err := overlay(out[idx], raw)
			if err != nil {
				return nil, MergeResult{}, fmt.Errorf("%w: product %d: %v", ErrBadImport, n, err)
			}
			merged.ID = out[idx].ID
			stamp := now
			merged.DateUpdated = &stamp
			merged.normalize()
			out[idx] = merged
			res.Updated++
			continue
		}

		if incoming.ID == 0 {
			incoming.ID = NextProductID(now, out)
		}
		added := now
		incoming.DateAdded = &added
		incoming.normalize()
		out = append(out, incoming)
		res.Added++
	}
	return out, res, nil
}

// overlay applies the top-level keys of patch on top of base.
func overlay(base Product, patch json.RawMessage) (Product, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return Product{}, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(baseJSON, &fields); err != nil {
		return Product{}, err
	}
	var patchFields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &patchFields); err != nil {
		return Product{}, err
	}
	for k, v := range patchFields {
		fields[k] = v
	}
	mergedJSON, err := json.Marshal(fields)
	if err != nil {
		return Product{}, err
	}
	var merged Product
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return Product{}, err
	}
	return merged, nil
}

// ApplyPatch is overlay for a single edited product.
func ApplyPatch(base Product, patch json.RawMessage) (Product, error) {
	merged, err := overlay(base, patch)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	merged.ID = base.ID
	merged.DateAdded = base.DateAdded
	merged.normalize()
	return merged, nil
}
