package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭, 실행 기록에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   P0 → P1 → P2 → P3 → P4 → P5
//   Load  Features  Forecast  KPI  Alert  Report

// Stage represents a pipeline stage
type Stage string

const (
	// StageLoad P0: 원천 데이터 로드 및 정제
	// 위치: internal/ingest/
	StageLoad Stage = "P0_LOAD"

	// StageFeatures P1: 시계열 피처 생성
	// 위치: internal/features/
	StageFeatures Stage = "P1_FEATURES"

	// StageForecast P2: 추세/계절 모델 적합 및 앙상블
	// 위치: internal/forecast/
	StageForecast Stage = "P2_FORECAST"

	// StageKPI P3: 월별/사업부/고급 KPI 계산
	// 위치: internal/kpi/
	StageKPI Stage = "P3_KPI"

	// StageAlert P4: 임계값 기반 알림
	// 위치: internal/alert/
	StageAlert Stage = "P4_ALERT"

	// StageReport P5: 결과 테이블 기록
	// 위치: internal/report/
	StageReport Stage = "P5_REPORT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "P0", "P1")
func (s Stage) ShortName() string {
	if len(s) < 2 || !IsValidStage(string(s)) {
		return "UNKNOWN"
	}
	return string(s[:2])
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageLoad:
		return "데이터 로드/정제"
	case StageFeatures:
		return "피처 생성"
	case StageForecast:
		return "매출 예측"
	case StageKPI:
		return "KPI 계산"
	case StageAlert:
		return "성과 알림"
	case StageReport:
		return "결과 기록"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageLoad,
		StageFeatures,
		StageForecast,
		StageKPI,
		StageAlert,
		StageReport,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult represents the result of one pipeline stage execution
type StageResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	DurationMS  int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
