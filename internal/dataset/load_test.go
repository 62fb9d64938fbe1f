package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardsCSV = "\ufeffCard,Cost,Health (+Shield),Radius,Type\n" +
	"Knight,3,\"1,452\",,Troop\n" +
	"Giant,5.0,\"3,344\",,Troop\n" +
	"Cannon,3\n"

func TestLoad(t *testing.T) {
	s := New(DefaultConfig())
	require.NoError(t, s.Load(strings.NewReader(cardsCSV)))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, []int{0, 1, 2}, ids(all))

	knight := all[0]
	assert.Equal(t, "Knight", knight.Get("Card").Text())
	assert.Equal(t, KindNumber, knight.Get("Cost").Kind())
	assert.Equal(t, KindString, knight.Get("Health (+Shield)").Kind())
	assert.Equal(t, "1,452", knight.Get("Health (+Shield)").Text())
	assert.True(t, knight.Get("Radius").IsNull())
	assert.True(t, knight.Has("Radius"))

	assert.Equal(t, "5.0", all[1].Get("Cost").Stringify())

	cannon := all[2]
	assert.True(t, cannon.Has("Type"))
	assert.True(t, cannon.Get("Type").IsNull())
}

func TestLoadDropsIDColumn(t *testing.T) {
	s := New(DefaultConfig())
	require.NoError(t, s.Load(strings.NewReader("id,Card\n10,Knight\n11,Giant\n")))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, 0, all[0].ID)
	assert.Equal(t, 1, all[1].ID)
	assert.NotContains(t, all[0].Fields, IDField)
}

func TestLoadCustomComma(t *testing.T) {
	s := New(Config{Comma: '|'})
	require.NoError(t, s.Load(strings.NewReader("Card|Cost\nKnight|3\n")))
	got, err := s.FindByName("knight")
	require.NoError(t, err)
	assert.Equal(t, "3", got[0].Get("Cost").Stringify())
}

func TestLoadRejectsBadHeader(t *testing.T) {
	s := New(DefaultConfig(), WithRecords(Fields{"Card": String("Kept")}))

	err := s.Load(strings.NewReader("Card,Card\nA,B\n"))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	err = s.Load(strings.NewReader("Card,\nA,B\n"))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.Equal(t, 1, s.Len())
}

func TestLoadEmpty(t *testing.T) {
	s := New(DefaultConfig(), WithRecords(Fields{"Card": String("Gone")}))
	require.NoError(t, s.Load(strings.NewReader("")))
	assert.Zero(t, s.Len())
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.csv")
	require.NoError(t, os.WriteFile(path, []byte(cardsCSV), 0o644))

	s := Open(Config{Source: path})
	assert.Equal(t, 3, s.Len())
}

func TestOpenMissingSourceStartsEmpty(t *testing.T) {
	s := Open(Config{Source: filepath.Join(t.TempDir(), "missing.csv")})
	assert.Zero(t, s.Len())
	assert.Empty(t, s.All())
	assert.Empty(t, s.Top(5))

	_, err := s.FindByName("knight")
	assert.ErrorIs(t, err, ErrNotFound)

	rec, err := s.Insert(Fields{"Card": String("First")})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ID)
}

func TestLoadFileMissing(t *testing.T) {
	s := New(DefaultConfig())
	err := s.LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
