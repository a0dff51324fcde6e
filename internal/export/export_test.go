package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/phrazzld/setgrouper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collection() domain.ResultCollection {
	return domain.ResultCollection{
		{SetName: "Commander Masters", Cards: []domain.CardRecord{
			{Name: "Sol Ring", Price: domain.NewUSDFromCents(150)},
			{Name: "Atraxa, Praetors' Voice", Price: domain.NewUSDFromCents(1299)},
		}},
		{SetName: "Innistrad Remastered", Cards: []domain.CardRecord{
			{Name: "Evolving Wilds", Price: domain.NewUSDFromCents(25)},
		}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, collection()))

	expected := "Set,Cards\n" +
		"Commander Masters,\"Sol Ring, Atraxa, Praetors' Voice\"\n" +
		"Innistrad Remastered,Evolving Wilds\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Set,Cards\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriterError(t *testing.T) {
	assert.Error(t, WriteCSV(failingWriter{}, collection()))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, collection()))

	expected := "Commander Masters (2)\n" +
		"  Sol Ring  $1.50  [MID]\n" +
		"  Atraxa, Praetors' Voice  $12.99  [HIGH]\n" +
		"\n" +
		"Innistrad Remastered (1)\n" +
		"  Evolving Wilds  $0.25  [LOW]\n"
	assert.Equal(t, expected, buf.String())
}
