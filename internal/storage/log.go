package storage

import (
	"bufio"
	"fmt"
	"io"

	"github.com/san-kum/orbitsim/internal/nbody"
)

// WriteLog writes the run's text log: each initial body's description, then every
// trajectory as its name followed by a line of (x, y, z) tuples.
func WriteLog(w io.Writer, initial nbody.Bodies, history nbody.History) error {
	bw := bufio.NewWriter(w)

	for _, b := range initial {
		bw.WriteString(b.String())
	}

	for _, tr := range history {
		bw.WriteString(tr.Name)
		bw.WriteString("\n[")
		for i := 0; i < tr.Len(); i++ {
			if i > 0 {
				bw.WriteString(", ")
			}
			fmt.Fprintf(bw, "(%v, %v, %v)", tr.X[i], tr.Y[i], tr.Z[i])
		}
		bw.WriteString("]\n")
	}

	return bw.Flush()
}
