package sqlite

import (
	"database/sql/driver"
	"fmt"
	"math"
	"sync"

	sqlite "modernc.org/sqlite"
)

// registerOnce guards the process-wide scalar function registration.
var registerOnce sync.Once

// registerVectorFunctions makes vec_distance_cosine available inside
// SQLite. Registration is driver-wide and must happen before any
// connection is opened; connections opened earlier will not see it.
func registerVectorFunctions() {
	registerOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("vec_distance_cosine", 2, vecDistanceCosineImpl)
	})
}

// vecDistanceCosineImpl computes the cosine distance (one minus cosine
// similarity) between two embedding BLOBs. Results fall in [0, 2].
// A zero-magnitude vector compares at distance 1.
func vecDistanceCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("vec_distance_cosine: expected 2 arguments, got %d", len(args))
	}

	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, nil
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("vec_distance_cosine: dimension mismatch %d vs %d", len(a), len(b))
	}

	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 1.0, nil
	}
	return 1.0 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
}

// asEmbedding decodes a BLOB argument into a float32 vector.
func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v)%4 != 0 {
			return nil, fmt.Errorf("vec_distance_cosine: invalid embedding blob length %d", len(v))
		}
		return bytesToFloat32Slice(v), nil
	default:
		return nil, fmt.Errorf("vec_distance_cosine: unsupported argument type %T, want BLOB", arg)
	}
}
