// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package influence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, csv string) *Table {
	t.Helper()
	tbl, err := ReadTable(strings.NewReader(csv))
	require.NoError(t, err)
	return tbl
}

// tieredCSV builds a labeled dataset with n accounts per tier whose
// follower counts are far apart.
func tieredCSV(n int) string {
	var b strings.Builder
	b.WriteString("followers,likes,shares,comments,influence_label\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,%d,%d,%d,Low\n", 500+i*10, 20+i, 2, 3)
		fmt.Fprintf(&b, "%d,%d,%d,%d,Medium\n", 50_000+i*100, 2_000+i*10, 200, 300)
		fmt.Fprintf(&b, "%d,%d,%d,%d,High\n", 900_000+i*1000, 80_000+i*100, 9_000, 12_000)
	}
	return b.String()
}
