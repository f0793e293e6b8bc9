package app

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// UnknownKey is returned for address values that are not text.
const UnknownKey = "Unknown"

// fallbackRunes is how much of an unmatched address becomes its key.
const fallbackRunes = 15

const (
	prefecturePat = `(?:東京都|北海道|京都府|大阪府|\p{Han}{2,3}県)?`
	markerPat     = `(\p{Han}+?[区市])`
)

/********** key rules (first match wins) **********/

type keyRule struct {
	name string
	re   *regexp.Regexp
}

var keyRules = []keyRule{
	// 中央区 + 銀座1丁目
	{"numbered", regexp.MustCompile(prefecturePat + markerPat + `([^\s0-9]+?(?:[0-9]+|[一二三四五六七八九十]+)丁目)`)},
	// 港区 + 六本木
	{"trailing", regexp.MustCompile(prefecturePat + markerPat + `([^\s0-9]+)`)},
}

var wardRe = regexp.MustCompile(`^` + prefecturePat + markerPat)

// NormalizeAddress maps a free-text address to a location key. It never
// fails: text without a ward/city marker degrades to its first 15
// characters.
func NormalizeAddress(addr string) string {
	key, _ := matchAddress(addr)
	return key
}

// NormalizeAny is NormalizeAddress for loosely typed input such as a
// decoded JSON value. Anything that is not a string yields UnknownKey.
func NormalizeAny(v any) string {
	s, ok := v.(string)
	if !ok {
		return UnknownKey
	}
	return NormalizeAddress(s)
}

// matchAddress also reports which rule produced the key ("fallback" if none).
func matchAddress(addr string) (string, string) {
	// full-width digits and latin would otherwise miss the numeric rule
	folded := width.Fold.String(addr)
	for _, r := range keyRules {
		if m := r.re.FindStringSubmatch(folded); m != nil {
			return m[1] + m[2], r.name
		}
	}
	return firstRunes(addr, fallbackRunes), "fallback"
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// WardOf returns the ward/city marker a location key starts with, or "".
func WardOf(key string) string {
	if m := wardRe.FindStringSubmatch(key); m != nil {
		return m[1]
	}
	return ""
}

// PointLabel is the key with its ward marker (and any prefecture before it)
// removed, as shown to users.
func PointLabel(key string) string {
	loc := wardRe.FindStringSubmatchIndex(key)
	if loc == nil {
		return key
	}
	return key[loc[3]:]
}

/********** location input **********/

// LocationInput carries every way a caller can name a location.
// Address is kept untyped so non-string JSON values can be detected;
// HasAddress distinguishes an explicit null from an absent field.
type LocationInput struct {
	LocationKey string
	Ward        string
	Point       string
	Address     any
	HasAddress  bool
}

// ResolveLocationKey picks the key from the most specific field present:
// an explicit key, then a ward + point selection, then a free-text address.
func ResolveLocationKey(in LocationInput) string {
	if k := strings.TrimSpace(in.LocationKey); k != "" {
		return k
	}
	if w, p := strings.TrimSpace(in.Ward), strings.TrimSpace(in.Point); w != "" && p != "" {
		return w + p
	}
	if in.HasAddress {
		return NormalizeAny(in.Address)
	}
	return ""
}
