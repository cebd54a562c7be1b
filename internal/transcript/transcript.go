package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	transcriptFileName = "transcript.log"
	maxCampaignIDLen   = 100
)

var campaignIDPattern = regexp.MustCompile(`^[ \p{L}\p{N}_\-.]+$`)

// Entry 一条会话记录
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
	Message   string    `json:"message"`
}

// Logger 战役会话记录器
//
// 按战役分目录写JSONL，超过大小上限时滚动为 .1/.2/.3 备份。
// 记录失败只打日志不返回错误，绝不打断游戏流程。
type Logger struct {
	baseDir    string
	maxSize    int64
	maxBackups int
	log        *zap.Logger

	mu sync.Mutex
}

// NewLogger 创建会话记录器
func NewLogger(baseDir string, maxSize int64, maxBackups int, log *zap.Logger) *Logger {
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	if maxBackups <= 0 {
		maxBackups = 3
	}
	return &Logger{
		baseDir:    baseDir,
		maxSize:    maxSize,
		maxBackups: maxBackups,
		log:        log,
	}
}

// ValidateCampaignID 校验战役目录名
//
// 拒绝空串、超长、路径分隔符、控制字符和上级目录引用。
func ValidateCampaignID(campaignID string) error {
	if campaignID == "" {
		return fmt.Errorf("战役ID不能为空")
	}
	if utf8.RuneCountInString(campaignID) > maxCampaignIDLen {
		return fmt.Errorf("战役ID超过%d字符", maxCampaignIDLen)
	}
	if strings.Contains(campaignID, "..") {
		return fmt.Errorf("战役ID不能包含上级目录引用")
	}
	for _, r := range campaignID {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("战役ID不能包含控制字符")
		}
	}
	if strings.ContainsAny(campaignID, `/\`) {
		return fmt.Errorf("战役ID不能包含路径分隔符")
	}
	if !campaignIDPattern.MatchString(campaignID) {
		return fmt.Errorf("战役ID包含非法字符: %s", campaignID)
	}
	return nil
}

// Log 异步记录一条会话，立即返回
func (l *Logger) Log(campaignID, author, message string) {
	go l.Append(campaignID, author, message)
}

// Append 同步记录一条会话
//
// 任何失败都被吞掉，只留一条警告日志。
func (l *Logger) Append(campaignID, author, message string) {
	if err := ValidateCampaignID(campaignID); err != nil {
		l.log.Warn("Invalid campaign ID for transcript", zap.Error(err))
		return
	}

	line, err := json.Marshal(&Entry{
		Timestamp: time.Now(),
		Author:    author,
		Message:   message,
	})
	if err != nil {
		l.log.Warn("Failed to marshal transcript entry", zap.Error(err))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	dir := filepath.Join(l.baseDir, campaignID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.log.Warn("Failed to create transcript dir", zap.Error(err), zap.String("dir", dir))
		return
	}

	path := filepath.Join(dir, transcriptFileName)
	if err := l.rotateIfNeeded(path); err != nil {
		l.log.Warn("Failed to rotate transcript", zap.Error(err), zap.String("path", path))
		// 滚动失败继续追加，宁可超限也不丢记录
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.log.Warn("Failed to open transcript", zap.Error(err), zap.String("path", path))
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		l.log.Warn("Failed to write transcript", zap.Error(err), zap.String("path", path))
	}
}

// rotateIfNeeded 文件超过上限时滚动备份
//
// transcript.log -> transcript.log.1 -> transcript.log.2 -> transcript.log.3，
// 最老的备份被覆盖。
func (l *Logger) rotateIfNeeded(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < l.maxSize {
		return nil
	}

	for i := l.maxBackups - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", path, i)
		to := fmt.Sprintf("%s.%d", path, i+1)
		if _, err := os.Stat(from); err == nil {
			if err := os.Rename(from, to); err != nil {
				return err
			}
		}
	}
	return os.Rename(path, path+".1")
}
