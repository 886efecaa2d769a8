package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWSClientsFollowsCounter(t *testing.T) {
	SetClientCounter(func() int { return 3 })
	assert.Equal(t, float64(3), testutil.ToFloat64(WSClients))

	SetClientCounter(func() int { return 0 })
	assert.Equal(t, float64(0), testutil.ToFloat64(WSClients))
}

func TestNoteEventsCounter(t *testing.T) {
	before := testutil.ToFloat64(NoteEvents.WithLabelValues("created", OutcomeSent))
	NoteEvents.WithLabelValues("created", OutcomeSent).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(NoteEvents.WithLabelValues("created", OutcomeSent)))
}
