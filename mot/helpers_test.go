package mot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// mustDetection creates detection centered at (cx, cy)
func mustDetection(t *testing.T, cx, cy, width, height, confidence float64, label string) Detection {
	t.Helper()
	det, err := NewDetection(cx-width/2, cy-height/2, cx+width/2, cy+height/2, confidence, 0, label)
	require.NoError(t, err)
	return det
}

// rawAt creates raw detector output centered at (cx, cy)
func rawAt(cx, cy, size, confidence float64, classID int) RawDetection {
	return RawDetection{
		X1:         cx - size/2,
		Y1:         cy - size/2,
		X2:         cx + size/2,
		Y2:         cy + size/2,
		Confidence: confidence,
		ClassID:    classID,
	}
}
