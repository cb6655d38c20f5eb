package sessionid

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id, err := New()
	require.NoError(t, err)
	assert.Len(t, id, Length)
	assert.NoError(t, Validate(id))
}

func TestNewUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id, err := New()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNewTimeSorted(t *testing.T) {
	var ids []string
	for range 5 {
		id, err := New()
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}
	for i := 1; i < len(ids); i++ {
		assert.Negative(t, strings.Compare(ids[i-1], ids[i]), "%s should sort before %s", ids[i-1], ids[i])
	}
}

func TestGeneratorReader(t *testing.T) {
	g := NewGenerator(bytes.NewReader(bytes.Repeat([]byte{0xab}, 64)))
	id, err := g.New()
	require.NoError(t, err)
	assert.NoError(t, Validate(id))

	_, err = NewGenerator(bytes.NewReader(nil)).New()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	good, err := New()
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"generated", good, false},
		{"too short", good[:10], true},
		{"too long", good + "0", true},
		{"bad alphabet", "u" + good[1:], true},
		{"not a v7 uuid", strings.Repeat("0", Length), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
