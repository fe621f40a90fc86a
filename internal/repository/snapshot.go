package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/cinema/internal/model"
)

// SnapshotRepository data.json 文件读写
type SnapshotRepository struct {
	path string
}

// NewSnapshotRepository 创建快照仓库
func NewSnapshotRepository(path string) *SnapshotRepository {
	return &SnapshotRepository{path: path}
}

// Path 快照文件路径
func (r *SnapshotRepository) Path() string {
	return r.path
}

// ReadRaw 读取原始内容
func (r *SnapshotRepository) ReadRaw() ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("读取快照失败: %w", err)
	}
	return data, nil
}

// Load 读取并解析快照
func (r *SnapshotRepository) Load() (*model.Snapshot, error) {
	data, err := r.ReadRaw()
	if err != nil {
		return nil, err
	}

	snap := &model.Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("解析快照失败: %w", err)
	}
	if snap.Movies == nil {
		snap.Movies = make(map[string]model.SnapshotMovie)
	}
	return snap, nil
}

// Save 写入快照（先写临时文件再重命名）
func (r *SnapshotRepository) Save(snap *model.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("序列化快照失败: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入快照失败: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("写入快照失败: %w", err)
	}
	return nil
}
