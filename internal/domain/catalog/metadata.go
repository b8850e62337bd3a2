package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Well-known metadata keys. Anything else in a Metadata map is a free-form
// (usually namespaced) attribute copied verbatim between catalogs.
const (
	// KeyFileName is always present on metadata read from a catalog and on
	// metadata passed to DeclareFile.
	KeyFileName = "file_name"
	// KeyChecksum holds a list of "<algorithm>:<value>" strings. Absent means
	// the file has no recorded checksum.
	KeyChecksum = "checksum"
	// KeyParents holds a list of parent references, each a mapping with
	// file_name, an optional catalog-internal file_id and an optional retired
	// marker. Absent means the file has no parents.
	KeyParents = "parents"
	// KeyUser is the owning user. Once set in a catalog it is never rewritten
	// by migration.
	KeyUser = "user"
	// KeyRetired appears inside parent references only.
	KeyRetired = "retired"

	// Catalog-internal keys that have no meaning in another catalog.
	KeyFileID     = "file_id"
	KeyProcessID  = "process_id"
	KeyCreateDate = "create_date"
	KeyUpdateDate = "update_date"
	KeyUpdateUser = "update_user"
)

// InternalKeys lists the keys stripped before metadata crosses catalogs. The
// migration flag key is stripped as well; it is configured separately.
var InternalKeys = []string{KeyFileID, KeyProcessID, KeyCreateDate, KeyUpdateDate, KeyUpdateUser}

// md5DigestWidth is the hex width of an md5 digest.
const md5DigestWidth = 32

// Flag is the per-file migration status persisted in the source catalog.
type Flag int

const (
	// FlagDone: fully migrated, never checked again.
	FlagDone Flag = 0
	// FlagPending: needs (re)checking. An absent flag means the same.
	FlagPending Flag = 1
	// FlagInvalid: permanently unmigratable, never checked again.
	FlagInvalid Flag = 2
)

func (f Flag) String() string {
	switch f {
	case FlagDone:
		return "done"
	case FlagPending:
		return "pending"
	case FlagInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("flag(%d)", int(f))
	}
}

// Terminal reports whether the flag excludes the file from further runs.
func (f Flag) Terminal() bool {
	return f == FlagDone || f == FlagInvalid
}

// ParseFlag converts a decoded metadata value into a Flag.
func ParseFlag(v any) (Flag, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		n = int64(x)
		if float64(n) != x {
			return FlagPending, fmt.Errorf("migration flag %v is not an integer", x)
		}
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return FlagPending, fmt.Errorf("migration flag %q: %w", x, err)
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return FlagPending, fmt.Errorf("migration flag %q: %w", x, err)
		}
		n = i
	default:
		return FlagPending, fmt.Errorf("migration flag has unsupported type %T", v)
	}
	switch Flag(n) {
	case FlagDone, FlagPending, FlagInvalid:
		return Flag(n), nil
	}
	return FlagPending, fmt.Errorf("migration flag %d out of range", n)
}

// Parent is a decoded parent reference.
type Parent struct {
	FileName string
	Retired  bool
}

// Metadata is the attribute mapping of a file record. Values are scalars,
// lists or nested mappings as decoded from JSON.
type Metadata map[string]any

// FileName returns the file_name attribute, or "" when absent.
func (m Metadata) FileName() string {
	s, _ := m[KeyFileName].(string)
	return s
}

// Flag returns the migration flag stored under key. An absent flag reads as
// FlagPending with present=false. A malformed flag is reported as an error and
// reads as FlagPending.
func (m Metadata) Flag(key string) (flag Flag, present bool, err error) {
	v, ok := m[key]
	if !ok || v == nil {
		return FlagPending, false, nil
	}
	flag, err = ParseFlag(v)
	return flag, true, err
}

// Checksums returns the checksum list. A single string value is accepted too.
func (m Metadata) Checksums() []string {
	switch v := m[KeyChecksum].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// PadChecksums left-pads md5 checksum values with '0' to the full digest
// width. Source catalogs stored digests as integers and lost leading zeros.
// It reports whether any value changed.
func (m Metadata) PadChecksums() bool {
	if _, ok := m[KeyChecksum]; !ok {
		return false
	}
	checksums := m.Checksums()
	changed := false
	for i, c := range checksums {
		if padded := PadMD5(c); padded != c {
			checksums[i] = padded
			changed = true
		}
	}
	if changed {
		m[KeyChecksum] = checksums
	}
	return changed
}

// PadMD5 pads an "md5:<hex>" checksum to 32 hex digits; other algorithms are
// returned unchanged.
func PadMD5(checksum string) string {
	value, ok := strings.CutPrefix(checksum, "md5:")
	if !ok || len(value) >= md5DigestWidth {
		return checksum
	}
	return "md5:" + strings.Repeat("0", md5DigestWidth-len(value)) + value
}

// Parents decodes the parent references.
func (m Metadata) Parents() []Parent {
	list, _ := m[KeyParents].([]any)
	out := make([]Parent, 0, len(list))
	for _, item := range list {
		switch p := item.(type) {
		case map[string]any:
			name, _ := p[KeyFileName].(string)
			out = append(out, Parent{FileName: name, Retired: truthy(p[KeyRetired])})
		case string:
			out = append(out, Parent{FileName: p})
		}
	}
	return out
}

// StripParentIDs removes catalog-internal ids from the parent references.
func (m Metadata) StripParentIDs() {
	list, ok := m[KeyParents].([]any)
	if !ok {
		return
	}
	for _, item := range list {
		if p, ok := item.(map[string]any); ok {
			delete(p, KeyFileID)
		}
	}
}

// Without removes keys in place and returns m.
func (m Metadata) Without(keys ...string) Metadata {
	for _, k := range keys {
		delete(m, k)
	}
	return m
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return cloneValue(map[string]any(m)).(map[string]any)
}

// Diff returns the fields of m that the target must receive: fields missing
// from target, and fields whose value differs. The parents and user fields are
// never overwritten once the target has them.
func (m Metadata) Diff(target Metadata) Metadata {
	diff := Metadata{}
	for k, v := range m {
		tv, ok := target[k]
		if !ok {
			diff[k] = v
			continue
		}
		if k == KeyParents || k == KeyUser {
			continue
		}
		if !ValuesEqual(v, tv) {
			diff[k] = v
		}
	}
	return diff
}

// ValuesEqual compares two decoded values by value. Both sides are encoded to
// canonical JSON so that, for instance, int 1 and float64 1 are equal.
func ValuesEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = cloneValue(item)
		}
		return out
	case Metadata:
		return Metadata(cloneValue(map[string]any(x)).(map[string]any))
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	default:
		return v
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "0", "false", "n", "no":
			return false
		}
		return true
	}
	return true
}

// MetadataUpdate is one record of a bulk metadata modification.
type MetadataUpdate struct {
	FileName string
	Fields   Metadata
}

// Payload returns the fields with the file name folded in, the shape bulk
// modification endpoints expect.
func (u MetadataUpdate) Payload() Metadata {
	out := make(Metadata, len(u.Fields)+1)
	for k, v := range u.Fields {
		out[k] = v
	}
	out[KeyFileName] = u.FileName
	return out
}
