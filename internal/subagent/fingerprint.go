package subagent

import (
	"encoding/json"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Fingerprint returns a stable hash of the profile and the selected variant
// pattern. encoding/json sorts map keys, so equal inputs hash equally.
func Fingerprint(p Profile, variantPattern string) string {
	data, err := json.Marshal(struct {
		Profile Profile `json:"profile"`
		Variant string  `json:"variant,omitempty"`
	}{p, variantPattern})
	if err != nil {
		return ""
	}
	return strconv.FormatUint(xxh3.Hash(data), 16)
}
