package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	sqlite "modernc.org/sqlite"

	"github.com/viant/sqlite-tsv/tsvector"
)

// RegisterTextSearchFunctions registers the tsv_* scalar functions with the
// driver so they are available on new connections opened after this call.
// Note: existing open connections will not see new functions.
//
// All functions are NULL-propagating: a NULL argument yields a NULL result.
func RegisterTextSearchFunctions(_ *sql.DB) error {
	// Idempotent registration; the driver rejects duplicates but we ignore errors silently here.
	_ = sqlite.RegisterDeterministicScalarFunction("tsv_parse", 1, tsvParseImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("tsv_valid", 1, tsvValidImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("tsv_length", 1, tsvLengthImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("tsv_strip", 1, tsvStripImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("tsv_setweight", 2, tsvSetWeightImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("tsv_concat", 2, tsvConcatImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("tsv_simple", 1, tsvSimpleImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("tsv_encode", 1, tsvEncodeImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("tsv_decode", 1, tsvDecodeImpl)
	return nil
}

// asText coerces a TEXT or BLOB argument to a Go string. NULL reports ok
// false so callers can propagate it.
func asText(arg driver.Value) (string, bool, error) {
	switch v := arg.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case []byte:
		return string(v), true, nil
	default:
		return "", false, fmt.Errorf("tsv: unsupported argument type %T; want TEXT", arg)
	}
}

// asVector parses a TEXT argument, or decodes a BLOB one, into a Vector.
func asVector(arg driver.Value) (tsvector.Vector, bool, error) {
	switch arg.(type) {
	case nil:
		return tsvector.Vector{}, false, nil
	case string, []byte:
		var vec tsvector.Vector
		if err := vec.Scan(arg); err != nil {
			return tsvector.Vector{}, false, err
		}
		return vec, true, nil
	default:
		return tsvector.Vector{}, false, fmt.Errorf("tsv: unsupported argument type %T; want TEXT or BLOB", arg)
	}
}

// tsv_parse(text) -> canonical tsvector text.
func tsvParseImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("tsv_parse: expected 1 argument, got %d", len(args))
	}
	vec, ok, err := asVector(args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return vec.String(), nil
}

// tsv_valid(text) -> 1 when the text parses as a tsvector, 0 otherwise.
func tsvValidImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("tsv_valid: expected 1 argument, got %d", len(args))
	}
	s, ok, err := asText(args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if _, err := tsvector.Parse(s); err != nil {
		return int64(0), nil
	}
	return int64(1), nil
}

// tsv_length(text) -> number of distinct lexemes.
func tsvLengthImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("tsv_length: expected 1 argument, got %d", len(args))
	}
	vec, ok, err := asVector(args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return int64(vec.Len()), nil
}

// tsv_strip(text) -> canonical text with all positions removed.
func tsvStripImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("tsv_strip: expected 1 argument, got %d", len(args))
	}
	vec, ok, err := asVector(args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return vec.Strip().String(), nil
}

// tsv_setweight(text, letter) -> canonical text with every position
// relabelled to the given weight.
func tsvSetWeightImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("tsv_setweight: expected 2 arguments, got %d", len(args))
	}
	vec, okVec, err := asVector(args[0])
	if err != nil {
		return nil, err
	}
	letter, okLetter, err := asText(args[1])
	if err != nil {
		return nil, err
	}
	if !okVec || !okLetter {
		return nil, nil
	}
	w, err := tsvector.ParseWeight(letter)
	if err != nil {
		return nil, err
	}
	out, err := vec.SetWeight(w)
	if err != nil {
		return nil, err
	}
	return out.String(), nil
}

// tsv_concat(a, b) -> canonical text of a || b with the usual position shift.
func tsvConcatImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("tsv_concat: expected 2 arguments, got %d", len(args))
	}
	a, okA, err := asVector(args[0])
	if err != nil {
		return nil, err
	}
	b, okB, err := asVector(args[1])
	if err != nil {
		return nil, err
	}
	if !okA || !okB {
		return nil, nil
	}
	return a.Concat(b).String(), nil
}

// tsv_simple(doc) -> canonical text of the simple-vectorized document.
func tsvSimpleImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("tsv_simple: expected 1 argument, got %d", len(args))
	}
	doc, ok, err := asText(args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return tsvector.Simple(doc).String(), nil
}

// tsv_encode(text) -> TSV1 BLOB of the parsed vector.
func tsvEncodeImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("tsv_encode: expected 1 argument, got %d", len(args))
	}
	vec, ok, err := asVector(args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return tsvector.EncodeVector(vec)
}

// tsv_decode(blob) -> canonical text of a TSV1 BLOB.
func tsvDecodeImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("tsv_decode: expected 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case []byte:
		vec, err := tsvector.DecodeVector(v)
		if err != nil {
			return nil, err
		}
		return vec.String(), nil
	default:
		return nil, fmt.Errorf("tsv_decode: unsupported argument type %T; want BLOB", args[0])
	}
}
