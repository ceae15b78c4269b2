package userdict

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "userdict.sqlite")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFrequencyMissReturnsZero(t *testing.T) {
	s := openTestStore(t)
	require.Equal(t, uint64(0), s.Frequency("未知"))
}

func TestLearnAccumulatesFrequency(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Learn("你好"))
	require.NoError(t, s.Learn("你好"))
	require.NoError(t, s.LearnWithCount("你好", 3))
	require.Equal(t, uint64(5), s.Frequency("你好"))
}

func TestLearnBigramAndBigramsAfter(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.LearnBigram("你", "好"))
	require.NoError(t, s.LearnBigram("你", "好"))
	require.NoError(t, s.LearnBigram("你", "们"))

	after := s.BigramsAfter("你")
	require.Equal(t, uint64(2), after["好"])
	require.Equal(t, uint64(1), after["们"])
	require.Len(t, after, 2)
}

func TestBigramsAfterDoesNotLeakOtherPrefixes(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.LearnBigram("你", "好"))
	require.NoError(t, s.LearnBigram("你好", "吗"))

	after := s.BigramsAfter("你")
	require.Len(t, after, 1)
	require.Equal(t, uint64(1), after["好"])
}

func TestAddDeleteUpdatePhrase(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.AddPhrase("测试", 10))
	require.Equal(t, uint64(10), s.Frequency("测试"))

	require.NoError(t, s.UpdateFrequency("测试", 20))
	require.Equal(t, uint64(20), s.Frequency("测试"))

	require.Error(t, s.UpdateFrequency("不存在", 1))

	require.NoError(t, s.DeletePhrase("测试"))
	require.Equal(t, uint64(0), s.Frequency("测试"))
}

func TestListAllAndSearchByPrefix(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.AddPhrase("你好", 1))
	require.NoError(t, s.AddPhrase("你们", 2))
	require.NoError(t, s.AddPhrase("再见", 3))

	all, err := s.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 3)

	matches, err := s.SearchByPrefix("你")
	require.NoError(t, err)
	require.Len(t, matches, 2)
}
