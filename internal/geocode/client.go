package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"voter-geo/internal/logger"
	"voter-geo/internal/metrics"
	"voter-geo/internal/version"
)

// 文档注释：Nominatim 兼容提供方响应结构
// 背景：对齐 /search 接口的返回字段，仅解析坐标所需的 lat/lon 文本；不扩展对外模型。
type searchItem struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Client：基于 Nominatim 兼容 REST 接口的提供方实现
// 约束：公共实例有速率限制，批量调用由上层的并发与限流控制；Email 用于运维联系标识。
type Client struct {
	BaseURL string
	Email   string
	HTTP    *http.Client
}

// NewClientFromEnv：从环境变量构造提供方
// 背景：GEOCODE_BASE_URL 缺省指向公共 Nominatim；自建实例时覆盖为内网地址。
func NewClientFromEnv() *Client {
	base := os.Getenv("GEOCODE_BASE_URL")
	if base == "" {
		base = "https://nominatim.openstreetmap.org"
	}
	timeout := 5 * time.Second
	if v := os.Getenv("GEOCODE_TIMEOUT_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}
	return &Client{
		BaseURL: base,
		Email:   os.Getenv("GEOCODE_EMAIL"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return "nominatim" }

// 文档注释：解析单个地址（REST）
// 背景：离线同步阶段调用外部数据源，把文本地址补全为坐标用于热力聚合；与在线展示链路解耦。
// 返回：首个候选的坐标；无候选时返回 ErrNotFound，网络/解码错误原样上抛由上层分类计数。
// 约束：limit=1 只取最优候选；不在此处做重试，节奏由调用方控制。
func (c *Client) Geocode(ctx context.Context, address string) (*Coordinate, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)
	if c.Email != "" {
		q.Set("email", c.Email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "voter-geo/"+version.Version)
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	t0 := time.Now()
	metrics.GeocodeRequestsTotal.WithLabelValues(c.Name()).Inc()
	logger.L().Debug("geocode_req", "provider", c.Name(), "address", address)
	resp, err := client.Do(req)
	if err != nil {
		logger.L().Error("geocode_http_error", "provider", c.Name(), "err", err)
		metrics.GeocodeFailTotal.WithLabelValues(c.Name()).Inc()
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.L().Error("geocode_bad_status", "provider", c.Name(), "status", resp.StatusCode)
		metrics.GeocodeFailTotal.WithLabelValues(c.Name()).Inc()
		return nil, errors.New("geocode: bad status " + strconv.Itoa(resp.StatusCode))
	}
	var items []searchItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		logger.L().Error("geocode_decode_error", "provider", c.Name(), "err", err)
		metrics.GeocodeFailTotal.WithLabelValues(c.Name()).Inc()
		return nil, err
	}
	dur := time.Since(t0).Milliseconds()
	metrics.GeocodeDurationMs.Observe(float64(dur))
	if len(items) == 0 {
		metrics.GeocodeFailTotal.WithLabelValues(c.Name()).Inc()
		logger.L().Debug("geocode_not_found", "provider", c.Name(), "address", address, "duration_ms", dur)
		return nil, ErrNotFound
	}
	lat, err := strconv.ParseFloat(items[0].Lat, 64)
	if err != nil {
		metrics.GeocodeFailTotal.WithLabelValues(c.Name()).Inc()
		return nil, err
	}
	lon, err := strconv.ParseFloat(items[0].Lon, 64)
	if err != nil {
		metrics.GeocodeFailTotal.WithLabelValues(c.Name()).Inc()
		return nil, err
	}
	metrics.GeocodeSuccessTotal.WithLabelValues(c.Name()).Inc()
	logger.L().Debug("geocode_resp", "provider", c.Name(), "lat", lat, "lon", lon, "duration_ms", dur)
	return &Coordinate{Lat: lat, Lon: lon}, nil
}
