package trie

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hupe1980/trieidx/codec"
	"github.com/hupe1980/trieidx/internal/hash"
)

// Record is an opaque caller record. The index never mutates it.
type Record map[string]any

// idFields is the preference order for identifier fields.
var idFields = [...]string{"id", "Id", "ID", "OrganizationId", "Index"}

// ItemID derives the identifier of a record.
//
// The first populated field among id, Id, ID, OrganizationId and Index is used.
// Records without one are identified by a fingerprint of their canonical JSON
// encoding (sorted keys), prefixed with "h". The result depends only on the
// record's content and survives a JSON round trip: 5 and 5.0 both yield "5".
func ItemID(r Record) string {
	for _, f := range idFields {
		v, ok := r[f]
		if !ok || v == nil {
			continue
		}
		if s, ok := scalarString(v); ok && s != "" {
			return s
		}
	}

	b, err := codec.Default.Marshal(map[string]any(r))
	if err != nil {
		// Unencodable values (channels, funcs) still get a stable id.
		b = []byte(fmt.Sprint(map[string]any(r)))
	}
	return "h" + hash.Fingerprint(b)
}

// scalarString renders a scalar value as a string. It reports false for nil
// and for composite values (maps, slices, structs).
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return formatFloat(x), true
	case float32:
		return formatFloat(float64(x)), true
	case int:
		return strconv.Itoa(x), true
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return "", false
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
