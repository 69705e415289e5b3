package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_AddKills(t *testing.T) {
	p := NewProfile("All")
	p.AddKills(3, 1)
	p.AddKills(3, 4)
	p.AddKills(12, 1) // not validated

	assert.Equal(t, 5, p.LevelKills[3])
	assert.Equal(t, 1, p.LevelKills[12])
	assert.Equal(t, 6, p.TotalKills())
}

func TestProfile_ZeroValueIsUsable(t *testing.T) {
	var p Profile
	p.AddKills(2, 1)
	p.AddDrop(31109)
	p.AddWave8()

	assert.Equal(t, 1, p.KillsAt(2))
	assert.Equal(t, 1, p.KillsAt(OverflowFloor))
	assert.Equal(t, 1, p.ObtainedCount(31109))
}

func TestProfile_AddDrop_UnknownItem(t *testing.T) {
	p := NewProfile("All")
	p.AddDrop(99999)
	p.AddDrop(99999)
	assert.Equal(t, 2, p.ObtainedCount(99999))
}

func TestProfile_Reset(t *testing.T) {
	p := NewProfile("Manual")
	p.AddKills(5, 10)
	p.AddWave8()
	p.AddDrop(31130)

	p.Reset()

	assert.Equal(t, "Manual", p.Name)
	assert.Empty(t, p.LevelKills)
	assert.Zero(t, p.WavesPast8)
	assert.Empty(t, p.ObtainedUniques)
	assert.Zero(t, p.TotalKills())
}

func TestProfile_CloneIsIndependent(t *testing.T) {
	p := NewProfile("All")
	p.AddKills(4, 2)
	p.AddDrop(31088)

	c := p.Clone()
	require.True(t, p.Equal(c))

	c.AddKills(4, 1)
	c.AddDrop(31088)
	assert.Equal(t, 2, p.LevelKills[4])
	assert.Equal(t, 1, p.ObtainedCount(31088))
	assert.False(t, p.Equal(c))
}

func TestProfile_Equal(t *testing.T) {
	a := &Profile{Name: "All"}
	b := NewProfile("All")
	assert.True(t, a.Equal(b))

	var nilProfile *Profile
	assert.True(t, nilProfile.Equal(nil))
	assert.False(t, a.Equal(nil))

	b.AddWave8()
	assert.False(t, a.Equal(b))
}

func TestProfile_JSONFieldNames(t *testing.T) {
	p := NewProfile("All")
	p.AddKills(2, 7)
	p.AddWave8()
	p.AddDrop(31112)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"All","levelKills":{"2":7},"wavesPast8":1,"obtainedUniques":{"31112":1}}`, string(data))

	var back Profile
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, p.Equal(&back))
}

func TestParseView(t *testing.T) {
	tests := []struct {
		in      string
		want    View
		wantErr bool
	}{
		{in: "ALL", want: ViewAll},
		{in: "session", want: ViewSession},
		{in: " Manual ", want: ViewManual},
		{in: "weekly", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseView(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.String(), viewNames[got])
		})
	}
}

func TestDisplayMode_IncludedInAggregate(t *testing.T) {
	assert.True(t, DisplayShow.IncludedInAggregate())
	assert.False(t, DisplayGrey.IncludedInAggregate())
	assert.False(t, DisplayHide.IncludedInAggregate())
}

func TestParseDisplayMode(t *testing.T) {
	tests := map[string]DisplayMode{
		"SHOW": DisplayShow,
		"grey": DisplayGrey,
		"Gray": DisplayGrey,
		"hide": DisplayHide,
	}
	for in, want := range tests {
		got, err := ParseDisplayMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDisplayMode("blink")
	assert.Error(t, err)
}

func TestDisplayMode_Text(t *testing.T) {
	var m DisplayMode
	require.NoError(t, m.UnmarshalText([]byte("HIDE")))
	assert.Equal(t, DisplayHide, m)

	out, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "HIDE", string(out))
}
