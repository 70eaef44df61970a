package trie

import (
	"strings"
)

// LoadStats summarizes a LoadData call.
type LoadStats struct {
	Records int // records visited
	Values  int // field values indexed
	Tokens  int // whitespace tokens indexed in addition to whole values
	Skipped int // missing, empty or non-scalar field values
}

// LoadData indexes the given fields of every record.
//
// Each non-empty scalar value is indexed as a whole and per whitespace token.
// Missing, nil and composite values are skipped. A record whose id is already
// held by a different record is registered under a disambiguated id. Unless batchMode is set the
// index is cleared first; loading in consecutive batches is equivalent to one
// load of the concatenated records.
//
// Empty records or fields leave the index untouched and return ErrNoRecords or
// ErrNoFields.
func (ix *Index) LoadData(records []Record, fields []string, batchMode bool) (LoadStats, error) {
	var stats LoadStats

	if len(records) == 0 {
		ix.logger.Warn("load skipped", "reason", "no records")
		return stats, ErrNoRecords
	}
	if len(fields) == 0 {
		ix.logger.Warn("load skipped", "reason", "no fields")
		return stats, ErrNoFields
	}

	if !batchMode {
		ix.reset()
	}

	for _, rec := range records {
		stats.Records++
		if rec == nil {
			stats.Skipped += len(fields)
			continue
		}

		id := ix.resolveID(ItemID(rec), rec)
		for _, f := range fields {
			v, ok := rec[f]
			if !ok || v == nil {
				stats.Skipped++
				continue
			}
			s, ok := scalarString(v)
			if !ok {
				stats.Skipped++
				continue
			}
			value := Normalize(s)
			if value == "" {
				stats.Skipped++
				continue
			}

			ix.insert(value, id, rec)
			stats.Values++

			if strings.IndexByte(value, ' ') < 0 {
				continue
			}
			for _, tok := range strings.Split(value, " ") {
				ix.insert(tok, id, rec)
				stats.Tokens++
			}
		}
	}

	ix.logger.Debug("load finished",
		"records", stats.Records,
		"values", stats.Values,
		"tokens", stats.Tokens,
		"skipped", stats.Skipped,
		"items", ix.Len(),
		"terms", ix.Terms(),
		"batch", batchMode,
	)

	return stats, nil
}
