package sqlite

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sqlite "modernc.org/sqlite"

	"github.com/custodia-labs/chai-cli/internal/catalog"
)

// cosineDistanceFunc is the SQL name of the cosine distance function.
const cosineDistanceFunc = "vec_cosine_distance"

var registerOnce sync.Once
var registerErr error

// registerVectorFunctions makes vec_cosine_distance available on every
// connection opened afterwards. It is safe to call repeatedly.
func registerVectorFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction(cosineDistanceFunc, 2, cosineDistanceImpl)
	})
	return registerErr
}

// cosineDistanceImpl returns 1 - cosine similarity of two embedding BLOBs.
// It yields NULL when either side is NULL, undecodable, of a different
// dimension or zero-norm, so such rows drop out of ranked queries.
func cosineDistanceImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s: expected 2 arguments, got %d", cosineDistanceFunc, len(args))
	}
	a, ok := asEmbedding(args[0])
	if !ok {
		return nil, nil
	}
	b, ok := asEmbedding(args[1])
	if !ok {
		return nil, nil
	}
	d, ok := catalog.CosineDistance(a, b)
	if !ok {
		return nil, nil
	}
	return d, nil
}

func asEmbedding(arg driver.Value) ([]float32, bool) {
	blob, ok := arg.([]byte)
	if !ok || len(blob) == 0 || len(blob)%4 != 0 {
		return nil, false
	}
	return bytesToFloat32Slice(blob), true
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
