package equity

import "errors"

// ErrNoQualifyingSales is returned when no record has both an assessed value
// and a sale price. It is terminal: retrying with the same records cannot succeed.
var ErrNoQualifyingSales = errors.New("no qualifying sales for ratio study")
