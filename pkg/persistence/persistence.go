package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"

	"github.com/gemspace/gemmarket/pkg/logger"
)

// Service 持久化服务接口
type Service interface {
	NewStore(prefix, id, tag string) Store
}

// Store 存储接口
type Store interface {
	Save(data interface{}) error
	Load(data interface{}) error
}

// ErrNotExists 表示数据不存在
var ErrNotExists = errors.New("persistence data not exists")

// JSONFileService 基于 JSON 文件的持久化服务
type JSONFileService struct {
	baseDir string
}

// NewJSONFileService 创建 JSON 文件持久化服务
func NewJSONFileService(baseDir string) *JSONFileService {
	return &JSONFileService{
		baseDir: baseDir,
	}
}

// NewStore 创建新的存储
func (s *JSONFileService) NewStore(prefix, id, tag string) Store {
	key := prefix + ":" + id + ":" + tag
	return &JSONFileStore{
		service: s,
		key:     key,
	}
}

// JSONFileStore JSON 文件存储实现
type JSONFileStore struct {
	service *JSONFileService
	key     string
}

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (s *JSONFileStore) filePath() string {
	// key 形如 "registry:<id>:<tag>"，这里做文件名安全化
	safe := keySanitizer.ReplaceAllString(s.key, "_")
	return filepath.Join(s.service.baseDir, safe+".json")
}

// Save 保存数据（先写临时文件再原子改名）
func (s *JSONFileStore) Save(data interface{}) error {
	logger.Debugf("[persistence] Save: key=%s", s.key)
	if err := os.MkdirAll(s.service.baseDir, 0o755); err != nil {
		return errors.Wrap(err, "mkdir base dir")
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal")
	}

	path := s.filePath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "write tmp file")
	}
	return errors.Wrap(os.Rename(tmp, path), "rename tmp file")
}

// Load 加载数据，不存在时返回 ErrNotExists
func (s *JSONFileStore) Load(data interface{}) error {
	logger.Debugf("[persistence] Load: key=%s", s.key)
	b, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExists
		}
		return errors.Wrap(err, "read file")
	}
	return errors.Wrap(json.Unmarshal(b, data), "unmarshal")
}

// MemoryService 内存持久化服务（测试用）
type MemoryService struct {
	stores map[string]*MemoryStore
}

// NewMemoryService 创建内存持久化服务
func NewMemoryService() *MemoryService {
	return &MemoryService{stores: make(map[string]*MemoryStore)}
}

// NewStore 创建新的存储
func (s *MemoryService) NewStore(prefix, id, tag string) Store {
	key := prefix + ":" + id + ":" + tag
	if st, ok := s.stores[key]; ok {
		return st
	}
	st := &MemoryStore{}
	s.stores[key] = st
	return st
}

// MemoryStore 内存存储实现
type MemoryStore struct {
	data []byte
}

// Save 保存数据
func (s *MemoryStore) Save(data interface{}) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.data = b
	return nil
}

// Load 加载数据
func (s *MemoryStore) Load(data interface{}) error {
	if s.data == nil {
		return ErrNotExists
	}
	return json.Unmarshal(s.data, data)
}
