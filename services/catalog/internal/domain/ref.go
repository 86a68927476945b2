package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// RefKind tags which store a reference points at.
type RefKind uint8

const (
	RefInvalid RefKind = iota
	RefNative
	RefLegacy
)

func (k RefKind) String() string {
	switch k {
	case RefNative:
		return "native"
	case RefLegacy:
		return "legacy"
	default:
		return "invalid"
	}
}

// Ref is a classified entity reference. It is produced once by ParseRef at the
// boundary; downstream code switches on Kind and never re-parses Raw.
type Ref struct {
	Kind   RefKind
	Native uuid.UUID
	Legacy int64
	Raw    string
}

// ParseRef classifies raw as a native UUID, a positive base-10 legacy id, or
// invalid.
func ParseRef(raw string) Ref {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Ref{Kind: RefInvalid, Raw: raw}
	}
	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil && n > 0 {
			return Ref{Kind: RefLegacy, Legacy: n, Raw: raw}
		}
		return Ref{Kind: RefInvalid, Raw: raw}
	}
	if id, err := uuid.Parse(s); err == nil && id != uuid.Nil {
		return Ref{Kind: RefNative, Native: id, Raw: raw}
	}
	return Ref{Kind: RefInvalid, Raw: raw}
}

func NativeRef(id uuid.UUID) Ref {
	return Ref{Kind: RefNative, Native: id, Raw: id.String()}
}

func LegacyRef(id int64) Ref {
	return Ref{Kind: RefLegacy, Legacy: id, Raw: strconv.FormatInt(id, 10)}
}

func (r Ref) IsNative() bool { return r.Kind == RefNative }
func (r Ref) IsLegacy() bool { return r.Kind == RefLegacy }
func (r Ref) IsZero() bool   { return r.Kind == RefInvalid && r.Raw == "" }

func (r Ref) String() string {
	switch r.Kind {
	case RefNative:
		return r.Native.String()
	case RefLegacy:
		return strconv.FormatInt(r.Legacy, 10)
	default:
		return r.Raw
	}
}

func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Ref) UnmarshalText(b []byte) error {
	*r = ParseRef(string(b))
	return nil
}

// ParseRefs classifies every raw reference and splits them by kind. Invalid
// references are returned in input order so callers can report all of them.
func ParseRefs(raws []string) (native []uuid.UUID, legacy []int64, invalid []string) {
	for _, raw := range raws {
		ref := ParseRef(raw)
		switch ref.Kind {
		case RefNative:
			native = append(native, ref.Native)
		case RefLegacy:
			legacy = append(legacy, ref.Legacy)
		default:
			invalid = append(invalid, raw)
		}
	}
	return native, legacy, invalid
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
