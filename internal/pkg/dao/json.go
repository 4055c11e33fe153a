package dao

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// JSON 存储在 JSON 列里的原始值，空值落库为 NULL
type JSON json.RawMessage

// NewJSON 序列化 v，nil 和空 map 都得到空 JSON
func NewJSON(v any) (JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化 JSON 列失败: %w", err)
	}
	if string(data) == "null" || string(data) == "{}" {
		return nil, nil
	}
	return JSON(data), nil
}

// Decode 反序列化到 v，空 JSON 不做任何事
func (j JSON) Decode(v any) error {
	if len(j) == 0 {
		return nil
	}
	return json.Unmarshal(j, v)
}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = append([]byte(nil), v...)
	case string:
		bytes = []byte(v)
	default:
		return errors.New("JSON 列的类型无法识别")
	}
	*j = JSON(bytes)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("JSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}
