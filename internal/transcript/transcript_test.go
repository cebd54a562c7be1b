package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLogger(t *testing.T, maxSize int64) (*Logger, string) {
	dir := t.TempDir()
	return NewLogger(dir, maxSize, 3, zap.NewNop()), dir
}

// TestValidateCampaignID 测试战役ID校验
func TestValidateCampaignID(t *testing.T) {
	valid := []string{
		"Quest",
		"Dragon Heist",
		"camp-1.2",
		"guild_01",
		"龙之战役",
		"Ménage à Trois",
	}
	for _, id := range valid {
		assert.NoError(t, ValidateCampaignID(id), id)
	}

	invalid := []string{
		"",
		strings.Repeat("a", 101),
		"../etc",
		"a/b",
		`a\b`,
		"bad\x00id",
		"tab\tid",
		"semi;colon",
	}
	for _, id := range invalid {
		assert.Error(t, ValidateCampaignID(id), id)
	}
}

// TestLogger_Append 测试追加JSONL记录
func TestLogger_Append(t *testing.T) {
	logger, dir := newTestLogger(t, 0)

	logger.Append("Quest", "alice", "I open the door")
	logger.Append("Quest", "dm", "It creaks loudly")

	path := filepath.Join(dir, "Quest", "transcript.log")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		assert.Contains(t, line, `"timestamp"`)
		assert.Contains(t, line, `"author"`)
		assert.Contains(t, line, `"message"`)

		var entry Entry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Author)
	assert.Equal(t, "I open the door", entries[0].Message)
	assert.Equal(t, "dm", entries[1].Author)
	assert.False(t, entries[0].Timestamp.IsZero())
}

// TestLogger_InvalidIDSwallowed 测试非法ID被静默忽略
func TestLogger_InvalidIDSwallowed(t *testing.T) {
	logger, dir := newTestLogger(t, 0)

	logger.Append("../escape", "alice", "nope")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestLogger_Rotation 测试大小触发的滚动
func TestLogger_Rotation(t *testing.T) {
	// 上限设得很小，每条记录都触发滚动
	logger, dir := newTestLogger(t, 1)

	for i := 0; i < 5; i++ {
		logger.Append("Quest", "alice", strings.Repeat("x", 32))
	}

	base := filepath.Join(dir, "Quest", "transcript.log")
	for _, path := range []string{base, base + ".1", base + ".2", base + ".3"} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
	// 不会产生第四个备份
	_, err := os.Stat(base + ".4")
	assert.True(t, os.IsNotExist(err))
}

// TestLogger_RotationKeepsNewest 测试滚动后最新记录在主文件
func TestLogger_RotationKeepsNewest(t *testing.T) {
	logger, dir := newTestLogger(t, 1)

	logger.Append("Quest", "alice", "first")
	logger.Append("Quest", "alice", "second")

	data, err := os.ReadFile(filepath.Join(dir, "Quest", "transcript.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "second")

	backup, err := os.ReadFile(filepath.Join(dir, "Quest", "transcript.log.1"))
	require.NoError(t, err)
	assert.Contains(t, string(backup), "first")
}
