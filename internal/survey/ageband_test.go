package survey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ageTable(rows ...Record) *Table {
	return NewTable([]string{"idade", "gênero"}, rows)
}

func TestAgeBands(t *testing.T) {
	table := ageTable(
		Record{Int(22), Text("f")},
		Record{Int(29), Text("m")},
		Record{Int(31), Text("f")},
		Record{Int(45), Text("m")},
	)

	ct, err := AgeBands(table, "idade", "gênero")
	require.NoError(t, err)
	require.Equal(t, []AgeBand{{20, 30}, {30, 40}, {40, 50}}, ct.Bands)
	assert.Equal(t, []string{"f", "m"}, ct.Categories)
	assert.Equal(t, [][]int{{1, 1}, {1, 0}, {0, 1}}, ct.Counts)
	assert.Equal(t, 2, ct.BandTotal(0))
	assert.Equal(t, 4, ct.Total())
}

func TestAgeBands_KeepsEmptyBands(t *testing.T) {
	ct, err := AgeBands(ageTable(
		Record{Int(18), Text("f")},
		Record{Int(52), Text("f")},
	), "idade", "gênero")
	require.NoError(t, err)

	require.Len(t, ct.Bands, 5)
	assert.Equal(t, AgeBand{10, 20}, ct.Bands[0])
	assert.Equal(t, AgeBand{50, 60}, ct.Bands[4])
	assert.Equal(t, 0, ct.BandTotal(2))
}

func TestAgeBands_SingleAge(t *testing.T) {
	ct, err := AgeBands(ageTable(Record{Int(40), Text("f")}), "idade", "gênero")
	require.NoError(t, err)
	assert.Equal(t, []AgeBand{{40, 50}}, ct.Bands)
}

func TestAgeBands_SkipsInvalidRows(t *testing.T) {
	ct, err := AgeBands(ageTable(
		Record{Int(25), Text("f")},
		Record{Missing(), Text("m")},
		Record{Int(-1), Text("m")},
		Record{Int(200), Text("m")},
		Record{Text("30"), Text("m")},
		Record{Int(33), Text(" ")},
		Record{Int(34), Missing()},
	), "idade", "gênero")
	require.NoError(t, err)

	assert.Equal(t, []string{"f"}, ct.Categories)
	assert.Equal(t, 1, ct.Total())
}

func TestAgeBands_Errors(t *testing.T) {
	_, err := AgeBands(ageTable(), "idade", "raça")
	assert.True(t, errors.Is(err, ErrFieldNotFound))

	_, err = AgeBands(ageTable(), "altura", "gênero")
	assert.True(t, errors.Is(err, ErrFieldNotFound))

	_, err = AgeBands(ageTable(Record{Missing(), Text("f")}), "idade", "gênero")
	assert.True(t, errors.Is(err, ErrNoValidData))
}

func TestAgeBand(t *testing.T) {
	b := AgeBand{Start: 20, End: 30}
	assert.Equal(t, "20-29", b.Label())
	assert.True(t, b.Contains(20))
	assert.True(t, b.Contains(29))
	assert.False(t, b.Contains(30))
}

func TestBandOf(t *testing.T) {
	bands := BandsFor(22, 45)
	assert.Equal(t, 0, BandOf(bands, 22))
	assert.Equal(t, 2, BandOf(bands, 49))
	assert.Equal(t, -1, BandOf(bands, 50))
	assert.Equal(t, -1, BandOf(bands, 19))
	assert.Equal(t, -1, BandOf(nil, 30))
}

func TestAgeHistogram(t *testing.T) {
	table := ageTable(
		Record{Int(22), Text("f")},
		Record{Int(29), Missing()},
		Record{Int(45), Text("m")},
		Record{Missing(), Text("m")},
	)

	hist, err := AgeHistogram(table, "idade")
	require.NoError(t, err)
	assert.Equal(t, []BandCount{
		{Band: AgeBand{20, 30}, Label: "20-29", Count: 2},
		{Band: AgeBand{30, 40}, Label: "30-39", Count: 0},
		{Band: AgeBand{40, 50}, Label: "40-49", Count: 1},
	}, hist)

	_, err = AgeHistogram(ageTable(Record{Missing(), Text("m")}), "idade")
	assert.True(t, errors.Is(err, ErrNoValidData))
}

func TestBuildPyramid(t *testing.T) {
	rows := []Record{
		{Int(21), Text("m")}, {Int(22), Text("m")}, {Int(23), Text("m")}, {Int(24), Text("f")},
		{Int(45), Text("f")},
	}
	ct, err := AgeBands(ageTable(rows...), "idade", "gênero")
	require.NoError(t, err)

	p, err := BuildPyramid(ct)
	require.NoError(t, err)
	assert.Equal(t, "f", p.Left)
	assert.Equal(t, "m", p.Right)
	require.Len(t, p.Rows, 3)

	first := p.Rows[0]
	assert.InDelta(t, 75.0, first.Right, 1e-9)
	assert.InDelta(t, -25.0, first.Left, 1e-9)
	assert.InDelta(t, 100.0, first.Right-first.Left, 1e-9)
	assert.Equal(t, 1, first.LeftCount)
	assert.Equal(t, 3, first.RightCount)

	empty := p.Rows[1]
	assert.Equal(t, 0.0, empty.Left)
	assert.Equal(t, 0.0, empty.Right)
	assert.InDelta(t, 100.0, p.MaxPercent(), 1e-9)
}

func TestBuildPyramid_Errors(t *testing.T) {
	one, err := AgeBands(ageTable(Record{Int(30), Text("f")}), "idade", "gênero")
	require.NoError(t, err)
	_, err = BuildPyramid(one)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	three, err := AgeBands(ageTable(
		Record{Int(30), Text("f")}, Record{Int(30), Text("m")}, Record{Int(30), Text("x")},
	), "idade", "gênero")
	require.NoError(t, err)
	_, err = BuildPyramid(three)
	assert.True(t, errors.Is(err, ErrNotBinary))
}
