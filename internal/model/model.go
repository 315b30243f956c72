package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&CalculatorInfo{},
	&Calculation{},
	&CalculationResult{},
	&Trace{},
	&PerformanceSample{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// CalculatorInfo records which build created the schema.
type CalculatorInfo struct {
	gorm.Model
	Name          string `json:"name" gorm:"size:127"`
	Version       string `json:"version" gorm:"size:32"`
	SchemaVersion uint   `json:"schemaVersion"`
}

func (*CalculatorInfo) TableName() string {
	return "calculator_infos"
}

// PerformanceSample is one status snapshot written by the monitor.
type PerformanceSample struct {
	ID                  uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time                time.Time      `json:"time" gorm:"index:idx_performance_time"`
	Requests            uint64         `json:"requests"`
	Failures            uint64         `json:"failures"`
	CacheEntries        int            `json:"cacheEntries"`
	QueueLengths        datatypes.JSON `json:"queueLengths"`
	LastWriteDurationMs float32        `json:"lastWriteDurationMs"`
}

func (*PerformanceSample) TableName() string {
	return "performance_samples"
}

////////////////////////
// CALCULATIONS
////////////////////////

// Vec3 is a block position or velocity stored as three columns.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Calculation is one charge search request and its summary.
type Calculation struct {
	ID          uint                `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time           `json:"time" gorm:"index:idx_calculation_time"`
	DurationMs  float64             `json:"durationMs"`
	Version     string              `json:"version" gorm:"size:16;index:idx_calculation_version"`
	Mode        string              `json:"mode" gorm:"size:16"`
	Start       Vec3                `json:"start" gorm:"embedded;embeddedPrefix:start_"`
	Destination Vec3                `json:"destination" gorm:"embedded;embeddedPrefix:destination_"`
	MaxTicks    uint32              `json:"maxTicks"`
	MaxDistance float64             `json:"maxDistance"`
	Candidates  int                 `json:"candidates"`
	ResultCount int                 `json:"resultCount"`
	Results     []CalculationResult `json:"results" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Calculation) TableName() string {
	return "calculations"
}

// CalculationResult is one ranked charge combination of a Calculation.
type CalculationResult struct {
	ID            uint    `json:"id" gorm:"primarykey;autoIncrement;"`
	CalculationID uint    `json:"calculationId" gorm:"index:idx_result_calculation_id"`
	Rank          int     `json:"rank"`
	Red           uint32  `json:"red"`
	Blue          uint32  `json:"blue"`
	Vertical      uint32  `json:"vertical"`
	Total         uint32  `json:"total" gorm:"index:idx_result_total"`
	Tick          uint32  `json:"tick"`
	Distance      float64 `json:"distance"`
	EndPosition   Vec3    `json:"endPosition" gorm:"embedded;embeddedPrefix:end_position_"`
	EndMotion     Vec3    `json:"endMotion" gorm:"embedded;embeddedPrefix:end_motion_"`
	Direction     string  `json:"direction" gorm:"size:8"`
	Yaw           float64 `json:"yaw"`
	Pitch         float64 `json:"pitch"`
}

func (*CalculationResult) TableName() string {
	return "calculation_results"
}

// Trace is one forward simulation. Positions and motions are JSON arrays of
// {x,y,z}; Path holds the positions as WKT for spatial tooling.
type Trace struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time      `json:"time" gorm:"index:idx_trace_time"`
	Kind        string         `json:"kind" gorm:"size:16;index:idx_trace_kind"`
	Version     string         `json:"version" gorm:"size:16"`
	Red         uint32         `json:"red"`
	Blue        uint32         `json:"blue"`
	Vertical    uint32         `json:"vertical"`
	Landing     Vec3           `json:"landing" gorm:"embedded;embeddedPrefix:landing_"`
	FinalMotion Vec3           `json:"finalMotion" gorm:"embedded;embeddedPrefix:final_motion_"`
	ReachedTick uint32         `json:"reachedTick"`
	Success     bool           `json:"success"`
	Distance    float64        `json:"distance"`
	Destination datatypes.JSON `json:"destination"`
	Positions   datatypes.JSON `json:"positions"`
	Motions     datatypes.JSON `json:"motions"`
	Path        string         `json:"path" gorm:"type:text"`
	PathLength  float64        `json:"pathLength"`
}

func (*Trace) TableName() string {
	return "traces"
}
