package sluice

import "reflect"

// Fingerprint is a comparable snapshot of a watch query result. It holds the
// first row of the result, or nothing when the result was empty.
type Fingerprint struct {
	row     Row
	present bool
}

// Compute returns the fingerprint of row. A nil row yields the empty
// fingerprint.
func Compute(row Row) Fingerprint {
	if row == nil {
		return Fingerprint{}
	}
	return Fingerprint{row: row, present: true}
}

// fingerprintOf fingerprints the first row of rows.
func fingerprintOf(rows RowSet) Fingerprint {
	if len(rows) == 0 {
		return Fingerprint{}
	}
	return Compute(rows[0])
}

// Empty reports whether f was computed from no row.
func (f Fingerprint) Empty() bool {
	return !f.present
}

// Equal reports whether f and other describe the same row. Two empty
// fingerprints are equal; an empty and a present one never are.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.present != other.present {
		return false
	}
	if !f.present {
		return true
	}
	return reflect.DeepEqual(f.row, other.row)
}
