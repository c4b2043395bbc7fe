package service

import (
	"context"

	"github.com/radioafrica/internal/store"
)

const (
	maxReportedCollections = 10
	maxReportedErrorRunes  = 50
)

// DatabaseReport 是 /test 诊断接口的返回内容。
type DatabaseReport struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Driver           string   `json:"driver"`
	Store            string   `json:"store"`
	Collections      []string `json:"collections"`
}

// DiagnosticsEnv 记录连接参数是否已配置，只关心是否存在。
type DiagnosticsEnv struct {
	Driver          string
	DatabaseURLSet  bool
	DatabaseNameSet bool
}

// DiagnosticsService 汇总存储连接状态，自身从不返回错误。
type DiagnosticsService struct {
	store store.Store
	env   DiagnosticsEnv
}

func NewDiagnosticsService(s store.Store, env DiagnosticsEnv) *DiagnosticsService {
	return &DiagnosticsService{store: s, env: env}
}

// Ping 检查存储是否可达。
func (s *DiagnosticsService) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return storeError("ping store", err)
	}
	return nil
}

// Report 生成诊断报告，存储错误被截断后写入 database 字段。
func (s *DiagnosticsService) Report(ctx context.Context) DatabaseReport {
	report := DatabaseReport{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		DatabaseURL:      presence(s.env.DatabaseURLSet),
		DatabaseName:     presence(s.env.DatabaseNameSet),
		ConnectionStatus: "Not Connected",
		Driver:           s.env.Driver,
		Store:            s.store.Name(),
		Collections:      []string{},
	}

	if err := s.store.Ping(ctx); err != nil {
		report.Database = "❌ Error: " + truncateRunes(err.Error(), maxReportedErrorRunes)
		return report
	}

	report.Database = "✅ Available"
	report.ConnectionStatus = "Connected"

	collections, err := s.store.Collections(ctx)
	if err != nil {
		report.Database = "⚠️  Connected but Error: " + truncateRunes(err.Error(), maxReportedErrorRunes)
		return report
	}

	if len(collections) > maxReportedCollections {
		collections = collections[:maxReportedCollections]
	}
	if collections != nil {
		report.Collections = collections
	}
	report.Database = "✅ Connected & Working"
	return report
}

func presence(set bool) string {
	if set {
		return "✅ Set"
	}
	return "❌ Not Set"
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
