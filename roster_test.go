package trafficos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kainat5008/Traffic-System-OS/banker"
)

const rosterYAML = `
resources:
  - name: lane
    total: 1
  - name: active-vehicles
    total: 1
clients:
  - name: spawn-vehicles
    maximum: [1, 1]
  - name: speed-manager
    maximum: [0, 1]
`

func TestParseRoster(t *testing.T) {
	r, err := ParseRoster([]byte(rosterYAML))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1}, r.Totals())

	id, err := r.ClientID("speed-manager")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, "speed-manager", r.ClientName(1))

	class, err := r.ResourceClass("active-vehicles")
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	assert.Equal(t, "active-vehicles", r.ResourceName(1))

	_, err = r.ClientID("nobody")
	assert.ErrorIs(t, err, ErrUnknownName)
	_, err = r.ResourceClass("nothing")
	assert.ErrorIs(t, err, ErrUnknownName)

	assert.Equal(t, "client-9", r.ClientName(9))
	assert.Equal(t, "class-9", r.ResourceName(9))
}

func TestParseRoster_Invalid(t *testing.T) {
	_, err := ParseRoster([]byte(`{`))
	assert.Error(t, err)
}

func TestRosterValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Roster)
		wantErr error
	}{
		{
			name:    "empty clients",
			mutate:  func(r *Roster) { r.Clients = nil },
			wantErr: ErrEmptyRoster,
		},
		{
			name:    "empty resources",
			mutate:  func(r *Roster) { r.Resources = nil },
			wantErr: ErrEmptyRoster,
		},
		{
			name:    "duplicate client name",
			mutate:  func(r *Roster) { r.Clients[1].Name = r.Clients[0].Name },
			wantErr: ErrDuplicateName,
		},
		{
			name:    "duplicate resource name",
			mutate:  func(r *Roster) { r.Resources[1].Name = r.Resources[0].Name },
			wantErr: ErrDuplicateName,
		},
		{
			name:    "zero total",
			mutate:  func(r *Roster) { r.Resources[0].Total = 0 },
			wantErr: nil, // message-only error
		},
		{
			name:    "maximum dimension mismatch",
			mutate:  func(r *Roster) { r.Clients[0].Maximum = []int{1} },
			wantErr: banker.ErrDimensionMismatch,
		},
		{
			name:    "maximum exceeds total",
			mutate:  func(r *Roster) { r.Clients[0].Maximum = []int{2, 1} },
			wantErr: banker.ErrDemandExceedsTotal,
		},
		{
			name:    "negative maximum",
			mutate:  func(r *Roster) { r.Clients[0].Maximum = []int{-1, 1} },
			wantErr: banker.ErrNegativeUnits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRoster()
			tt.mutate(r)
			err := r.Validate()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultRoster(t *testing.T) {
	r := DefaultRoster()
	require.NoError(t, r.Validate())
	assert.Len(t, r.Resources, 2)
	assert.Len(t, r.Clients, 8)

	id, err := r.ClientID("traffic-light-controller")
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}
