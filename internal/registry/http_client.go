package registry

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// HTTPClient 远程登记簿客户端
// 登记簿作为独立服务部署时，通过它实现 Registry 接口
type HTTPClient struct {
	client *resty.Client
}

// NewHTTPClient 创建远程登记簿客户端
func NewHTTPClient(baseURL string) *HTTPClient {
	baseURL = strings.TrimSuffix(baseURL, "/")

	// resty 会自动读取环境变量里的代理配置
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)

	return &HTTPClient{client: client}
}

type assetResponse struct {
	ID      string `json:"id"`
	Owner   string `json:"owner"`
	Creator string `json:"creator"`
}

func (c *HTTPClient) getAsset(assetID string) (*assetResponse, error) {
	var out assetResponse
	resp, err := c.client.R().
		SetResult(&out).
		Get(fmt.Sprintf("/api/assets/%s", assetID))
	if err != nil {
		return nil, errors.Wrap(err, "registry request failed")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrAssetNotFound
	}
	if resp.IsError() {
		return nil, errors.Errorf("registry returned status %d", resp.StatusCode())
	}
	return &out, nil
}

// CreatorOf 实现 Registry 接口
func (c *HTTPClient) CreatorOf(assetID string) (string, error) {
	asset, err := c.getAsset(assetID)
	if err != nil {
		return "", err
	}
	return asset.Creator, nil
}

// OwnerOf 实现 Registry 接口
func (c *HTTPClient) OwnerOf(assetID string) (string, error) {
	asset, err := c.getAsset(assetID)
	if err != nil {
		return "", err
	}
	return asset.Owner, nil
}
