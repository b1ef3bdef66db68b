// Package intern holds the process-wide caches the codec consults so that
// equal small leaves decode to the same boxed instance instead of a fresh
// allocation per occurrence. Every table here is populated once at package
// init and never mutated afterward, so concurrent reads need no locking.
package intern

// Char is a single UTF-16-width code unit. It lives here, rather than in
// the codec package that actually uses it as a leaf type, so this
// package can intern Char values without importing codec (which imports
// intern for its string/int/bool/char caches). codec.Char is a type
// alias for this type.
type Char uint16

// SmallInts holds one boxed interface{} per value in [-128,127], indexed
// by v+128. Boxed as int64: that is the Go type every decoded integer
// leaf carries before any declared-type coercion narrows it.
var SmallInts [256]interface{}

// LowChars holds one boxed interface{} per code point in [0,127], boxed
// as Char: the type a decoded char leaf carries.
var LowChars [128]interface{}

// Bools holds the two canonical boxed booleans.
var Bools = [2]interface{}{false, true}

// Strings caches short, frequently repeated literals: the wire's own
// meta-keys, the three JSON keyword spellings (plus the case variants a
// lenient reader might see), and the ten single-digit numerals.
var Strings map[string]string

func init() {
	for i := range SmallInts {
		SmallInts[i] = int64(i - 128)
	}
	for i := range LowChars {
		LowChars[i] = Char(i)
	}

	literals := []string{
		"@type", "@id", "@ref", "@items", "@keys", "value",
		"true", "false", "null",
		"True", "False", "Null", "TRUE", "FALSE", "NULL",
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	}
	Strings = make(map[string]string, len(literals))
	for _, s := range literals {
		Strings[s] = s
	}
}

// String returns the canonical instance of s if s is a cached literal,
// otherwise s itself.
func String(s string) string {
	if canon, ok := Strings[s]; ok {
		return canon
	}
	return s
}

// Int64 returns the canonical boxed instance for a value in [-128,127].
// Callers must check the range themselves; out-of-range values are not
// interned.
func Int64(v int64) interface{} {
	return SmallInts[v+128]
}

// LowChar returns the canonical boxed instance for a code point in
// [0,127]. Callers must check the range themselves; out-of-range code
// points are not interned.
func LowChar(r rune) interface{} {
	return LowChars[r]
}

// Bool returns the canonical boxed instance for b.
func Bool(b bool) interface{} {
	if b {
		return Bools[1]
	}
	return Bools[0]
}
