package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/betbot/goperp/okx/transport"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://www.okx.com", cfg.ExchangeBaseURL)
	require.Len(t, cfg.Routes, 1)
	require.Equal(t, string(transport.RouteKindDirect), cfg.Routes[0].Kind)
}

func TestLoad_RouteOrderPreserved(t *testing.T) {
	path := writeConfig(t, `
exchange_base_url: https://www.okx.com
routes:
  - name: direct
    kind: direct
    timeout_ms: 5000
  - name: proxy-a
    kind: wrapproxy
    base_url: https://proxy-a.example.com/v1
    api_key_env: PROXY_A_KEY
  - name: proxy-b
    kind: wrapproxy
    base_url: https://proxy-b.example.com/v1
    api_key_env: PROXY_B_KEY
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Routes, 3)
	// 回退顺序 = 配置顺序
	require.Equal(t, []string{"direct", "proxy-a", "proxy-b"},
		[]string{cfg.Routes[0].Name, cfg.Routes[1].Name, cfg.Routes[2].Name})

	t.Setenv("PROXY_A_KEY", "ka")
	t.Setenv("PROXY_B_KEY", "kb")
	routes, err := cfg.BuildRoutes()
	require.NoError(t, err)
	require.Equal(t, "ka", routes[1].APIKey)
	require.Equal(t, transport.RouteKindWrapProxy, routes[2].Kind)
}

func TestLoad_ProxyRouteRequiresKeyEnv(t *testing.T) {
	path := writeConfig(t, `
routes:
  - name: proxy
    kind: wrapproxy
    base_url: https://proxy.example.com
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_UnknownRouteKindRejected(t *testing.T) {
	path := writeConfig(t, `
routes:
  - name: tunnel
    kind: socks5
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestCredentials_MissingEnvFails(t *testing.T) {
	t.Setenv("OKX_API_KEY", "")
	t.Setenv("OKX_SECRET_KEY", "")
	t.Setenv("OKX_PASSPHRASE", "")

	cfg, err := Load("")
	require.NoError(t, err)
	_, err = cfg.Credentials()
	require.Error(t, err)

	// 纸交易模式不要求凭证
	cfg.Execution.PaperMode = true
	_, err = cfg.Credentials()
	require.NoError(t, err)
}
