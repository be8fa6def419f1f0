package api

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

// IPLocator 将 IP 解析为坐标；ok=false 表示库中无此地址的位置
type IPLocator interface {
	Locate(ip net.IP) (lon, lat float64, ok bool, err error)
}

// GeoIPLocator 基于 GeoLite2/GeoIP2 City 库
type GeoIPLocator struct {
	r *geoip2.Reader
}

// OpenGeoIP 打开后立即校验库类型，Country/ASN 库没有坐标，启动时即报错
func OpenGeoIP(path string) (*GeoIPLocator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	if err := checkMetadata(r.Metadata()); err != nil {
		_ = r.Close()
		return nil, err
	}
	return &GeoIPLocator{r: r}, nil
}

func checkMetadata(m maxminddb.Metadata) error {
	if !strings.Contains(m.DatabaseType, "City") {
		return fmt.Errorf("geoip: database type %q has no coordinates, need a City database", m.DatabaseType)
	}
	return nil
}

// Locate 库中经纬度都为 0 视为未定位
func (g *GeoIPLocator) Locate(ip net.IP) (float64, float64, bool, error) {
	rec, err := g.r.City(ip)
	if err != nil {
		return 0, 0, false, err
	}
	lat, lon := rec.Location.Latitude, rec.Location.Longitude
	if lat == 0 && lon == 0 {
		return 0, 0, false, nil
	}
	return lon, lat, true, nil
}

func (g *GeoIPLocator) Close() error { return g.r.Close() }
