package orders

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrUnknownIDShape - the value is none of the known identifier variants
var ErrUnknownIDShape = errors.New("orders: unknown identifier shape")

// Ref - a structured reference carrying a nested identifier, as older
// clients still send it
type Ref struct {
	ID any `json:"$id"`
}

// CanonicalID collapses the known identifier representations into the
// canonical string form. The variant set is closed: plain string, nested
// Ref, 12-byte binary id (hex-encoded), fmt.Stringer. Anything else fails
// explicitly instead of being guessed at.
func CanonicalID(v any) (string, error) {
	switch x := v.(type) {
	case string:
		if x == "" {
			return "", fmt.Errorf("%w: empty string", ErrUnknownIDShape)
		}
		return x, nil
	case Ref:
		return CanonicalID(x.ID)
	case *Ref:
		if x == nil {
			return "", fmt.Errorf("%w: nil reference", ErrUnknownIDShape)
		}
		return CanonicalID(x.ID)
	case [12]byte:
		return hex.EncodeToString(x[:]), nil
	case []byte:
		if len(x) != 12 {
			return "", fmt.Errorf("%w: binary id must be 12 bytes, got %d", ErrUnknownIDShape, len(x))
		}
		return hex.EncodeToString(x), nil
	case fmt.Stringer:
		return CanonicalID(x.String())
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownIDShape, v)
	}
}
