// 包 ingest：提供数据集拉取与批量导入逻辑，作为离线数据通道
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"geo-api/internal/geodb"
	"geo-api/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Sink 批量写入目标；*store.Store 满足该接口
type Sink interface {
	UpsertBatch(ctx context.Context, seqBase int, recs []geodb.Record) error
}

type Options struct {
	BatchSize int
	Workers   int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 500
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// 文档注释：读取数据集（本地路径或 http(s) URL）
// 约束：以 .gz 结尾时按 gzip 解压；非 200 状态视为失败
func ReadSource(ctx context.Context, src string) ([]geodb.Record, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return geodb.LoadRecords(src)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &geodb.DatasetLoadError{Source: src, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &geodb.DatasetLoadError{Source: src, Err: fmt.Errorf("bad status %d", resp.StatusCode)}
	}
	return geodb.ReadRecords(resp.Body, strings.SplitN(src, "?", 2)[0])
}

// 文档注释：分批并发写入
// 背景：按 BatchSize 切分，每批一个事务；Workers 限制同时占用的连接数。
// 约束：写入前整体校验 code 唯一，重复时不写入任何批次；任一批失败取消其余批次并返回首个错误。
func Import(ctx context.Context, sink Sink, recs []geodb.Record, opt Options) error {
	opt = opt.withDefaults()
	seen := make(map[string]struct{}, len(recs))
	for i := range recs {
		if _, dup := seen[recs[i].Code]; dup {
			return fmt.Errorf("%w: %s", geodb.ErrDuplicateCode, recs[i].Code)
		}
		seen[recs[i].Code] = struct{}{}
	}

	t0 := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.Workers)
	batches := 0
	for start := 0; start < len(recs); start += opt.BatchSize {
		end := start + opt.BatchSize
		if end > len(recs) {
			end = len(recs)
		}
		base, batch := start, recs[start:end]
		batches++
		g.Go(func() error {
			if err := sink.UpsertBatch(gctx, base, batch); err != nil {
				logger.L().Error("ingest_batch_error", "seq", base, "err", err)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.L().Info("ingest_done", "records", len(recs), "batches", batches, "ms", time.Since(t0).Milliseconds())
	return nil
}

// FetchAndImport 读取来源并导入，返回写入条数
func FetchAndImport(ctx context.Context, sink Sink, src string, opt Options) (int, error) {
	logger.L().Info("ingest_start", "src", src)
	recs, err := ReadSource(ctx, src)
	if err != nil {
		return 0, err
	}
	if err := Import(ctx, sink, recs, opt); err != nil {
		return 0, err
	}
	return len(recs), nil
}
