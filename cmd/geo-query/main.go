// 查询工具：对数据集文件执行一次查询并输出 JSON，便于离线核对数据
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"geo-api/internal/config"
	"geo-api/internal/geodb"
	"geo-api/internal/logger"
)

func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()

	data := flag.String("data", cfg.DatasetPath, "dataset file (.json or .json.gz)")
	var c geodb.Criteria
	flag.Func("nom", "name (fuzzy, ranked)", strFlag(&c.Name))
	flag.Func("cp", "postal code", strFlag(&c.PostalCode))
	flag.Func("code", "commune code", strFlag(&c.Code))
	flag.Func("lat", "latitude", floatFlag(&c.Latitude))
	flag.Func("lon", "longitude", floatFlag(&c.Longitude))
	slim := flag.Bool("slim", false, "omit centre and contour from output")
	flag.Parse()

	// 命令行工具默认只输出警告以上，避免日志混入结果
	level := cfg.LogLevel
	if level == "" {
		level = "warn"
	}
	logger.Setup(level, cfg.LogFormat)

	db, err := geodb.Open(geodb.Options{SourcePath: *data})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	recs, err := db.Search(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if geodb.IsCriteriaError(err) {
			flag.Usage()
			os.Exit(2)
		}
		os.Exit(1)
	}
	if *slim {
		for i := range recs {
			recs[i].Centroid, recs[i].Boundary = nil, nil
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func floatFlag(dst **float64) func(string) error {
	return func(s string) error {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*dst = &f
		return nil
	}
}

func strFlag(dst **string) func(string) error {
	return func(s string) error {
		*dst = &s
		return nil
	}
}
