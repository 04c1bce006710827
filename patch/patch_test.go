package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssignsID(t *testing.T) {
	a := New()
	b := New()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAddBlockConnect(t *testing.T) {
	p := New().
		AddBlock("c", "const", Params{"value": 5.0}).
		AddBlock("d", "unit_delay", nil).
		Connect("c", "out", "d", "in")

	require.Len(t, p.Blocks, 2)
	require.Len(t, p.Edges, 1)
	assert.Equal(t, "c", p.Edges[0].From.Block)
	assert.Equal(t, "in", p.Edges[0].To.Port)
	assert.Equal(t, RoleUser, p.Edges[0].Role)
}

func TestParamsGetters(t *testing.T) {
	p := Params{
		"f":    2.5,
		"i":    3,
		"f32":  float32(1.5),
		"s":    "mean",
		"frac": 0.5,
	}

	assert.Equal(t, 2.5, p.Float("f", 0))
	assert.Equal(t, 3.0, p.Float("i", 0))
	assert.Equal(t, 1.5, p.Float("f32", 0))
	assert.Equal(t, 9.0, p.Float("missing", 9))

	assert.Equal(t, 3, p.Int("i", 0))
	assert.Equal(t, 7, p.Int("frac", 7), "non-integral falls back to the default")
	assert.Equal(t, 7, p.Int("missing", 7))

	assert.Equal(t, "mean", p.String("s", "sum"))
	assert.Equal(t, "sum", p.String("missing", "sum"))
}

func TestYAMLRoundTrip(t *testing.T) {
	p := New().
		AddBlock("phase1", "phase_accum", Params{"frequency": 0.5}).
		AddBlock("osc1", "osc", nil).
		Connect("phase1", "out", "osc1", "phase")

	data, err := p.EncodeYAML()
	require.NoError(t, err)

	got, err := LoadYAML(data)
	require.NoError(t, err)

	require.Len(t, got.Blocks, 2)
	assert.Equal(t, "phase_accum", got.Blocks[0].Type)
	assert.Equal(t, 0.5, got.Blocks[0].Params.Float("frequency", 0))
	require.Len(t, got.Edges, 1)
	assert.Equal(t, "phase1", got.Edges[0].From.Block)
	assert.Equal(t, "phase", got.Edges[0].To.Port)
}

func TestLoadYAMLLiteral(t *testing.T) {
	src := `
blocks:
  - id: line1
    type: place_line
    params:
      count: 16
  - id: out1
    type: render_points
edges:
  - from: {block: line1, port: t}
    to: {block: out1, port: position}
`
	p, err := LoadYAML([]byte(src))
	require.NoError(t, err)
	require.Len(t, p.Blocks, 2)
	assert.Equal(t, 16, p.Blocks[0].Params.Int("count", 0))
	require.Len(t, p.Edges, 1)
	assert.Equal(t, RoleUser, p.Edges[0].Role)
}

func TestLoadYAMLRejectsGarbage(t *testing.T) {
	_, err := LoadYAML([]byte("blocks: 12"))
	assert.Error(t, err)
}
