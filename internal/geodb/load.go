package geodb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"geo-api/internal/logger"

	"github.com/klauspost/compress/gzip"
)

// 文档注释：从文件加载记录序列
// 背景：数据集为记录数组的 JSON；以 .gz 结尾时先做 gzip 解压。
// 约束：任何读取/解压/解析失败与缺少 code 的记录都返回 *DatasetLoadError，不返回部分结果。
func LoadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DatasetLoadError{Source: path, Err: err}
	}
	defer f.Close()

	recs, err := ReadRecords(f, path)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("dataset_loaded", "path", path, "records", len(recs))
	return recs, nil
}

// ReadRecords 从任意来源读取；name 仅用于判断压缩与错误信息（文件路径或 URL）
func ReadRecords(src io.Reader, name string) ([]Record, error) {
	r := src
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, &DatasetLoadError{Source: name, Err: err}
		}
		defer zr.Close()
		r = zr
	}
	recs, err := DecodeRecords(r)
	if err != nil {
		return nil, &DatasetLoadError{Source: name, Err: err}
	}
	return recs, nil
}

// DecodeRecords 解码记录数组并校验 code
func DecodeRecords(r io.Reader) ([]Record, error) {
	var recs []Record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	for i := range recs {
		if recs[i].Code == "" {
			return nil, fmt.Errorf("%w: index %d", ErrMissingCode, i)
		}
		// 数据集里的 _score 不被信任
		recs[i].Score = 0
	}
	return recs, nil
}
