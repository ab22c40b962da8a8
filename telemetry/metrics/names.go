package metrics

// Core metrics emitted by the backup pipeline.
const (
	SchemaValidations      = "schema_validations"
	SchemaValidationErrors = "schema_validation_errors"
	ConfigLoadMs           = "config_load_ms"
	ConfigLoadErrors       = "config_load_errors"
	ScannerWalkMs          = "scanner_walk_ms"
	ScannerFilesVisited    = "scanner_files_visited"
	ScannerDirsPruned      = "scanner_dirs_pruned"
	LoggingEmitCount       = "logging_emit_count"
	LoggingEmitLatencyMs   = "logging_emit_latency_ms"
)

// Backup container metrics, keyed per version build/restore/trim.
const (
	BackupBuildOperationsTotal   = "backup_build_operations_total"
	BackupBuildDurationMs        = "backup_build_duration_ms"
	BackupBuildFilesOwnedTotal   = "backup_build_files_owned_total"
	BackupBuildFilesSharedTotal  = "backup_build_files_shared_total"
	BackupBuildBytesWrittenTotal = "backup_build_bytes_written_total"

	BackupRestoreOperationsTotal = "backup_restore_operations_total"
	BackupRestoreDurationMs      = "backup_restore_duration_ms"
	BackupRestoreFilesTotal      = "backup_restore_files_total"

	BackupTrimOperationsTotal = "backup_trim_operations_total"
	BackupTrimVersionsDropped = "backup_trim_versions_dropped"

	BackupInfoOperationsTotal = "backup_info_operations_total"
	BackupErrorsTotal         = "backup_errors_total"
)

// Error handling module metrics.
const (
	ErrorHandlingWrapsTotal = "error_handling_wraps_total"
	ErrorHandlingWrapMs     = "error_handling_wrap_ms"
)

// Metric units
const (
	UnitCount   = "count"
	UnitMs      = "ms"
	UnitSeconds = "seconds"
	UnitBytes   = "bytes"
	UnitPercent = "percent"
)

// Standard tag keys
const (
	TagStatus    = "status"
	TagComponent = "component"
	TagOperation = "operation"
	TagCategory  = "category"
	TagVersion   = "version"
	TagSeverity  = "severity"
	TagLayer     = "layer"
	TagRoot      = "root"
	TagErrorType = "error_type"
	TagPhase     = "phase"
	TagResult    = "result"
	TagReason    = "reason"
	TagPath      = "path"
)

// Standard tag values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusError   = "error"
)

// Backup pipeline phase values
const (
	PhaseScan    = "scan"
	PhaseDiff    = "diff"
	PhaseArchive = "archive"
	PhaseRestore = "restore"
	PhaseTrim    = "trim"
)

// Result values
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Operation tag values, used with TagOperation.
const (
	OpBuild   = "build"
	OpRestore = "restore"
	OpTrim    = "trim"
	OpInfo    = "info"
)

// Error type tag values
const (
	ErrorTypeValidation = "validation"
	ErrorTypeIO         = "io"
	ErrorTypeTimeout    = "timeout"
	ErrorTypeOther      = "other"
)
