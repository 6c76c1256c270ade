package cache

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"debtplan/internal/core"
)

// Fingerprint hashes everything a simulation depends on. Loan order is
// part of the key since it breaks ordering ties.
func Fingerprint(loans []core.Loan, budget float64, strategy core.Strategy, cascade bool) string {
	d := xxhash.New()
	var buf [8]byte
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		d.Write(buf[:])
	}

	d.WriteString(string(strategy))
	d.Write([]byte{0})
	if cascade {
		d.Write([]byte{1})
	} else {
		d.Write([]byte{0})
	}
	writeFloat(budget)
	binary.LittleEndian.PutUint64(buf[:], uint64(len(loans)))
	d.Write(buf[:])
	for _, l := range loans {
		writeFloat(l.OutstandingBalance)
		writeFloat(l.AnnualRatePercent)
		writeFloat(l.MinimumPayment)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
