package hash

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns the xxhash64 of data as a lower-case hex string.
func Fingerprint(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// FingerprintStrings hashes parts in order, separated by a NUL byte so that
// ("ab", "c") and ("a", "bc") differ.
func FingerprintStrings(parts ...string) string {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.WriteString(p)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
