package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/cinema/internal/model"
	"github.com/user/cinema/internal/repository"
	"github.com/user/cinema/internal/utils"
)

// SnapshotLoader 读取预计算快照，来源可以是本地文件或 http(s) 地址
type SnapshotLoader struct {
	source string
	client *utils.HTTPClient
}

// NewSnapshotLoader 创建快照加载器，source 为空表示不加载
func NewSnapshotLoader(source string, client *utils.HTTPClient) *SnapshotLoader {
	return &SnapshotLoader{source: source, client: client}
}

// Load 读取并解析快照。任何失败都包装为 ErrSnapshotUnavailable
func (l *SnapshotLoader) Load(ctx context.Context) (*model.Snapshot, error) {
	if l.source == "" {
		return nil, fmt.Errorf("%w: 未配置快照来源", ErrSnapshotUnavailable)
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://") {
		data, err = l.client.GetBody(ctx, l.source)
	} else {
		data, err = repository.NewSnapshotRepository(l.source).ReadRaw()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	return DecodeSnapshot(data)
}

// DecodeSnapshot 宽松解析快照：users 仅在为数组时读取，movies 仅在为对象时读取
func DecodeSnapshot(data []byte) (*model.Snapshot, error) {
	var raw struct {
		Users       json.RawMessage `json:"users"`
		Movies      json.RawMessage `json:"movies"`
		LastUpdated *string         `json:"lastUpdated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	snap := &model.Snapshot{
		Users:       []model.SnapshotUser{},
		Movies:      make(map[string]model.SnapshotMovie),
		LastUpdated: raw.LastUpdated,
	}

	if jsonKind(raw.Users) == '[' {
		if err := json.Unmarshal(raw.Users, &snap.Users); err != nil {
			return nil, fmt.Errorf("%w: users: %w", ErrSnapshotUnavailable, err)
		}
	}
	if jsonKind(raw.Movies) == '{' {
		if err := json.Unmarshal(raw.Movies, &snap.Movies); err != nil {
			return nil, fmt.Errorf("%w: movies: %w", ErrSnapshotUnavailable, err)
		}
	}

	return snap, nil
}

// jsonKind 返回 JSON 值的第一个非空白字符
func jsonKind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
