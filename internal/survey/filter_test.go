package survey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterTable() *Table {
	return NewTable(
		[]string{"data_hora_registro", "ID", "raça", "idade"},
		[]Record{
			{Text("t1"), Text("1"), Text("parda"), Int(30)},
			{Text("t2"), Text("2"), Text("branca"), Int(41)},
			{Text("t3"), Text("3"), Text("parda"), Missing()},
			{Text("t4"), Text("4"), Text(""), Int(30)},
		},
	)
}

func TestFilterableFields(t *testing.T) {
	assert.Equal(t, []string{"raça", "idade"}, FilterableFields(filterTable()))
}

func TestDistinctValues(t *testing.T) {
	values, err := DistinctValues(filterTable(), "raça")
	require.NoError(t, err)
	assert.Equal(t, []string{"branca", "parda"}, values)

	ages, err := DistinctValues(filterTable(), "idade")
	require.NoError(t, err)
	assert.Equal(t, []string{"30", "41"}, ages)

	_, err = DistinctValues(filterTable(), "gênero")
	assert.True(t, errors.Is(err, ErrFieldNotFound))
}

func TestFilter(t *testing.T) {
	got, err := Filter(filterTable(), "raça", "parda")
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	ts, _ := got.Timestamp(1)
	assert.Equal(t, "t3", ts)

	byAge, err := Filter(filterTable(), "idade", "30")
	require.NoError(t, err)
	assert.Equal(t, 2, byAge.Len())

	none, err := Filter(filterTable(), "raça", "amarela")
	require.NoError(t, err)
	assert.True(t, none.IsEmpty())
	assert.Equal(t, filterTable().Columns(), none.Columns())
}

func TestTableWithout(t *testing.T) {
	got := filterTable().Without(TimestampColumn, "id", "unknown")
	assert.Equal(t, []string{"raça", "idade"}, got.Columns())
	assert.Equal(t, "parda", got.Record(0)[0].String())
}
